package controllers

import (
	restful "github.com/emicklei/go-restful/v3"
)

// RouteRegistrar is implemented by every controller in this package.
type RouteRegistrar interface {
	RegisterRoutes(ws *restful.WebService)
}

// NewWebService returns a JSON WebService carrying the routes of every
// given controller.
func NewWebService(controllers ...RouteRegistrar) *restful.WebService {
	ws := new(restful.WebService)
	ws.Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	for _, ctl := range controllers {
		ctl.RegisterRoutes(ws)
	}
	return ws
}
