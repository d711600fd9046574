package controllers

import (
	"io"
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"

	"social-media-restful/services"
)

const (
	tagProfilePictures = "profile-pictures"

	// ProfilePictureField is the multipart field carrying the uploaded file.
	ProfilePictureField = "profile_pic"

	// maxUploadMemory bounds the part of a multipart body kept in memory.
	maxUploadMemory = 32 << 20

	uploadFailedMessage = "Failed to upload profile picture"
)

type UploadResponse struct {
	Message  string `json:"message"`
	FileName string `json:"file_name,omitempty"`
}

type ProfilePictureController struct {
	pictures services.ProfilePictureService
	logger   *zap.Logger
	// strict answers 500 on failed uploads instead of 200
	strict bool
}

func NewProfilePictureController(pictures services.ProfilePictureService, strictUploadErrors bool, logger *zap.Logger) *ProfilePictureController {
	return &ProfilePictureController{
		pictures: pictures,
		strict:   strictUploadErrors,
		logger:   logger.Named("ProfilePictureController"),
	}
}

func (ctl *ProfilePictureController) RegisterRoutes(ws *restful.WebService) {
	ws.Route(ws.PUT("/api/upload-profile-pic/{user_id}").To(ctl.uploadByPathHandler).
		Doc("Upload a profile picture").
		Consumes("multipart/form-data").
		Param(ws.PathParameter("user_id", "Identifier of the user").DataType("integer")).
		Param(ws.FormParameter(ProfilePictureField, "Picture file").DataType("file")).
		Metadata(restfulspec.KeyOpenAPITags, []string{tagProfilePictures}).
		Returns(http.StatusOK, "Upload result", UploadResponse{}).
		Returns(http.StatusBadRequest, "Invalid user ID or missing file", ErrorResponse{}))

	ws.Route(ws.PUT("/api/upload-profile-pic").To(ctl.uploadByQueryHandler).
		Doc("Upload a profile picture, user given as query parameter").
		Consumes("multipart/form-data").
		Param(ws.QueryParameter("user_id", "Identifier of the user").DataType("integer").Required(true)).
		Param(ws.FormParameter(ProfilePictureField, "Picture file").DataType("file")).
		Metadata(restfulspec.KeyOpenAPITags, []string{tagProfilePictures}).
		Returns(http.StatusOK, "Upload result", UploadResponse{}).
		Returns(http.StatusBadRequest, "Invalid user ID or missing file", ErrorResponse{}))

	ws.Route(ws.GET("/api/profile-picture/{file_name}").To(ctl.getHandler).
		Doc("Download a stored profile picture").
		Produces("image/png").
		Param(ws.PathParameter("file_name", "Stored picture name")).
		Metadata(restfulspec.KeyOpenAPITags, []string{tagProfilePictures}).
		Returns(http.StatusOK, "Picture bytes", nil).
		Returns(http.StatusNotFound, "File not found", ErrorResponse{}))
}

// uploadByPathHandler (Handles PUT /api/upload-profile-pic/{user_id})
func (ctl *ProfilePictureController) uploadByPathHandler(request *restful.Request, response *restful.Response) {
	userID, ok := pathUserID(request, response)
	if !ok {
		return
	}
	ctl.upload(userID, request, response)
}

// uploadByQueryHandler (Handles PUT /api/upload-profile-pic?user_id=)
func (ctl *ProfilePictureController) uploadByQueryHandler(request *restful.Request, response *restful.Response) {
	userID, ok := parseUserID(request.QueryParameter("user_id"), response)
	if !ok {
		return
	}
	ctl.upload(userID, request, response)
}

func (ctl *ProfilePictureController) upload(userID uint, request *restful.Request, response *restful.Response) {
	if err := request.Request.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(response, http.StatusBadRequest, "Invalid multipart body: "+err.Error())
		return
	}
	file, header, err := request.Request.FormFile(ProfilePictureField)
	if err != nil {
		writeError(response, http.StatusBadRequest, "Missing required field: "+ProfilePictureField)
		return
	}
	defer file.Close()

	fileName, err := ctl.pictures.Upload(request.Request.Context(), userID, header.Filename, file)
	if err != nil {
		ctl.logger.Error("Profile picture upload failed", zap.Uint("user_id", userID), zap.Error(err))
		status := http.StatusOK
		if ctl.strict {
			status = http.StatusInternalServerError
		}
		_ = response.WriteHeaderAndJson(status, UploadResponse{Message: uploadFailedMessage}, restful.MIME_JSON)
		return
	}

	_ = response.WriteHeaderAndJson(http.StatusOK, UploadResponse{
		Message:  "Profile picture uploaded successfully",
		FileName: fileName,
	}, restful.MIME_JSON)
}

// getHandler (Handles GET /api/profile-picture/{file_name})
func (ctl *ProfilePictureController) getHandler(request *restful.Request, response *restful.Response) {
	rc, err := ctl.pictures.Open(request.Request.Context(), request.PathParameter("file_name"))
	if err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}
	defer rc.Close()

	response.Header().Set("Content-Type", "image/png")
	response.WriteHeader(http.StatusOK)
	if _, err := io.Copy(response, rc); err != nil {
		ctl.logger.Warn("Streaming profile picture aborted", zap.Error(err))
	}
}
