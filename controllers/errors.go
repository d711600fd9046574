package controllers

import (
	"errors"
	"net/http"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"social-media-restful/services"
	"social-media-restful/storage"
)

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse is a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

var validate = validator.New()

func writeError(response *restful.Response, status int, detail string) {
	_ = response.WriteHeaderAndJson(status, ErrorResponse{Detail: detail}, restful.MIME_JSON)
}

// readEntity decodes the JSON body into entity and checks its required fields.
func readEntity(request *restful.Request, entity interface{}) error {
	if err := request.ReadEntity(entity); err != nil {
		return err
	}
	return validate.Struct(entity)
}

func writeBadRequest(response *restful.Response, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		writeError(response, http.StatusBadRequest, "Missing required field: "+verrs[0].Field())
		return
	}
	writeError(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
}

// handleServiceError translates service errors to HTTP responses.
func handleServiceError(logger *zap.Logger, response *restful.Response, err error) {
	switch {
	case errors.Is(err, services.ErrEmailExists), errors.Is(err, services.ErrNoFieldsToUpdate):
		writeError(response, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(response, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		writeError(response, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrPictureNotFound):
		writeError(response, http.StatusNotFound, "File not found")
	default:
		logger.Error("Unhandled service error", zap.Error(err))
		writeError(response, http.StatusInternalServerError, "Internal server error")
	}
}
