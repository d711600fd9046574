package controllers

import (
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"

	"social-media-restful/models"
	"social-media-restful/services"
)

type GenderController struct {
	genderService services.GenderService
	logger        *zap.Logger
}

func NewGenderController(genderService services.GenderService, logger *zap.Logger) *GenderController {
	return &GenderController{genderService: genderService, logger: logger.Named("GenderController")}
}

func (ctl *GenderController) RegisterRoutes(ws *restful.WebService) {
	ws.Route(ws.GET("/api/genders").To(ctl.listHandler).
		Doc("List the gender reference table").
		Metadata(restfulspec.KeyOpenAPITags, []string{"genders"}).
		Writes([]models.Gender{}).
		Returns(http.StatusOK, "Genders", []models.Gender{}))
}

func (ctl *GenderController) listHandler(request *restful.Request, response *restful.Response) {
	genders, err := ctl.genderService.ListGenders(request.Request.Context())
	if err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, genders, restful.MIME_JSON)
}
