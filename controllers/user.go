package controllers

import (
	"net/http"
	"strconv"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"

	"social-media-restful/auth"
	"social-media-restful/services"
)

const tagUsers = "users"

// UserController serves the account routes.
type UserController struct {
	userService services.UserService
	tokens      *auth.TokenIssuer
	logger      *zap.Logger
}

func NewUserController(userService services.UserService, tokens *auth.TokenIssuer, logger *zap.Logger) *UserController {
	return &UserController{
		userService: userService,
		tokens:      tokens,
		logger:      logger.Named("UserController"),
	}
}

type RegisterResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
}

type LoginResponse struct {
	AccessToken string               `json:"access_token"`
	Message     string               `json:"message"`
	UserDetails services.UserDetails `json:"user_details"`
}

// Request bodies hold pointers so that validation checks for a present
// key only; an explicit "" or 0 is passed through.
type RegisterRequest struct {
	Username       *string `json:"username" validate:"required"`
	FirstName      *string `json:"first_name" validate:"required"`
	LastName       *string `json:"last_name" validate:"required"`
	Password       *string `json:"password" validate:"required"`
	ProfilePicture *string `json:"profile_picture"`
	GenderID       *uint   `json:"gender_id" validate:"required"`
	Email          *string `json:"email" validate:"required"`
}

func (r *RegisterRequest) input() *services.RegisterInput {
	return &services.RegisterInput{
		Username:       *r.Username,
		FirstName:      *r.FirstName,
		LastName:       *r.LastName,
		Password:       *r.Password,
		ProfilePicture: r.ProfilePicture,
		GenderID:       *r.GenderID,
		Email:          *r.Email,
	}
}

type LoginRequest struct {
	Email    *string `json:"email" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email *string `json:"email" validate:"required"`
}

type ForgotPasswordResponse struct {
	Message     string `json:"message"`
	NewPassword string `json:"new_password"`
}

// RegisterRoutes adds the account routes to ws.
func (ctl *UserController) RegisterRoutes(ws *restful.WebService) {
	ws.Route(ws.POST("/api/register").To(ctl.registerHandler).
		Doc("Register a new user").
		Metadata(restfulspec.KeyOpenAPITags, []string{tagUsers}).
		Reads(RegisterRequest{}).
		Returns(http.StatusOK, "User registered", RegisterResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body or email already exists", ErrorResponse{}))

	ws.Route(ws.POST("/api/login").To(ctl.loginHandler).
		Doc("Log in with email and password").
		Metadata(restfulspec.KeyOpenAPITags, []string{tagUsers}).
		Reads(LoginRequest{}).
		Returns(http.StatusOK, "Login successful", LoginResponse{}).
		Returns(http.StatusUnauthorized, "Incorrect username or password", ErrorResponse{}))

	ws.Route(ws.POST("/api/forgot-password").To(ctl.forgotPasswordHandler).
		Doc("Replace the password of an account with a random one").
		Metadata(restfulspec.KeyOpenAPITags, []string{tagUsers}).
		Reads(ForgotPasswordRequest{}).
		Returns(http.StatusOK, "Password reset", ForgotPasswordResponse{}).
		Returns(http.StatusNotFound, "User not found", ErrorResponse{}))

	ws.Route(ws.PUT("/api/users/{user_id}").Filter(auth.AuthFilter(ctl.tokens)).To(ctl.updateUserHandler).
		Doc("Update profile fields of a user").
		Param(ws.PathParameter("user_id", "Identifier of the user to update").DataType("integer")).
		Param(ws.HeaderParameter("Authorization", "Bearer token").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, []string{tagUsers}).
		Reads(services.UpdateUserInput{}).
		Returns(http.StatusOK, "User updated", MessageResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body or no fields to update", ErrorResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", ErrorResponse{}).
		Returns(http.StatusForbidden, "Token belongs to another user", ErrorResponse{}))
}

// registerHandler (Handles POST /api/register)
func (ctl *UserController) registerHandler(request *restful.Request, response *restful.Response) {
	body := new(RegisterRequest)
	if err := readEntity(request, body); err != nil {
		writeBadRequest(response, err)
		return
	}

	result, err := ctl.userService.Register(request.Request.Context(), body.input())
	if err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}

	_ = response.WriteHeaderAndJson(http.StatusOK, RegisterResponse{
		Message:     "User registered successfully",
		AccessToken: result.AccessToken,
	}, restful.MIME_JSON)
}

// loginHandler (Handles POST /api/login)
func (ctl *UserController) loginHandler(request *restful.Request, response *restful.Response) {
	body := new(LoginRequest)
	if err := readEntity(request, body); err != nil {
		writeBadRequest(response, err)
		return
	}

	result, err := ctl.userService.Login(request.Request.Context(), &services.LoginInput{
		Email:    *body.Email,
		Password: *body.Password,
	})
	if err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}

	_ = response.WriteHeaderAndJson(http.StatusOK, LoginResponse{
		AccessToken: result.AccessToken,
		Message:     "Login successful",
		UserDetails: result.User,
	}, restful.MIME_JSON)
}

// forgotPasswordHandler (Handles POST /api/forgot-password)
func (ctl *UserController) forgotPasswordHandler(request *restful.Request, response *restful.Response) {
	input := new(ForgotPasswordRequest)
	if err := readEntity(request, input); err != nil {
		writeBadRequest(response, err)
		return
	}

	newPassword, err := ctl.userService.ResetPassword(request.Request.Context(), *input.Email)
	if err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}

	_ = response.WriteHeaderAndJson(http.StatusOK, ForgotPasswordResponse{
		Message:     "Password reset successfully",
		NewPassword: newPassword,
	}, restful.MIME_JSON)
}

// updateUserHandler (Handles PUT /api/users/{user_id})
func (ctl *UserController) updateUserHandler(request *restful.Request, response *restful.Response) {
	userID, ok := pathUserID(request, response)
	if !ok {
		return
	}

	// login tokens carry the numeric id as subject
	if subject, _ := request.Attribute(auth.AttrSubject).(string); subject != strconv.FormatUint(uint64(userID), 10) {
		writeError(response, http.StatusForbidden, "Not allowed to update another user")
		return
	}

	input := new(services.UpdateUserInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, err)
		return
	}

	if err := ctl.userService.UpdateProfile(request.Request.Context(), userID, input); err != nil {
		handleServiceError(ctl.logger, response, err)
		return
	}

	_ = response.WriteHeaderAndJson(http.StatusOK, MessageResponse{Message: "User updated successfully"}, restful.MIME_JSON)
}

// pathUserID parses the user_id path parameter, answering 400 when it is not
// a positive integer.
func pathUserID(request *restful.Request, response *restful.Response) (uint, bool) {
	return parseUserID(request.PathParameter("user_id"), response)
}

func parseUserID(raw string, response *restful.Response) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		writeError(response, http.StatusBadRequest, "Invalid user ID format")
		return 0, false
	}
	return uint(id), true
}
