package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-blog-api/internal/domain"
	"github.com/oksasatya/go-blog-api/pkg/response"
	"github.com/oksasatya/go-blog-api/pkg/validation"
)

type failure struct {
	status  int
	message string
}

var failures = []struct {
	err error
	failure
}{
	{domain.ErrMissingArguments, failure{http.StatusBadRequest, "You must provide arguments."}},
	{domain.ErrPartialArguments, failure{http.StatusBadRequest, "You have not provided all required arguments"}},
	{domain.ErrTooManyArguments, failure{http.StatusBadRequest, "Too many arguments"}},
	{domain.ErrUserNotFound, failure{http.StatusNotFound, "User was not found."}},
	{domain.ErrPostNotFound, failure{http.StatusNotFound, "Post was not found."}},
	{domain.ErrCommentNotFound, failure{http.StatusNotFound, "Comment was not found."}},
	{domain.ErrUserAlreadyExists, failure{http.StatusConflict, "User already exists."}},
	{domain.ErrTitleAlreadyExists, failure{http.StatusConflict, "A post with this title already exists."}},
	{domain.ErrInsufficientRights, failure{http.StatusForbidden, "User does not have sufficient rights to perform this action."}},
	{domain.ErrUserDeactivated, failure{http.StatusForbidden, "User is deactivated."}},
	{domain.ErrWrongPassword, failure{http.StatusUnauthorized, "Password is wrong."}},
	{domain.ErrConflict, failure{http.StatusConflict, "The resource was changed concurrently, please retry."}},
}

var invalidMessages = map[string]string{
	"username":       "Your username is invalid.",
	"id":             "Your id is invalid.",
	"apikey":         "Your apikey is invalid.",
	"password":       "Your password is invalid.",
	"fullname":       "Your name is invalid.",
	"email":          "Your email address is invalid",
	"permissions":    "Your permissions are invalid",
	"title":          "Your title is invalid.",
	"body":           "Your body is invalid.",
	"profilePicture": "Your profile picture is invalid.",
}

func classify(err error) failure {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		msg, ok := invalidMessages[fe.Field]
		if !ok {
			msg = "Your " + fe.Field + " is invalid."
		}
		return failure{http.StatusBadRequest, msg}
	}
	for _, f := range failures {
		if errors.Is(err, f.err) {
			return f.failure
		}
	}
	return failure{http.StatusInternalServerError, "internal server error"}
}

// fail writes the envelope for a service error. Unexpected errors are logged
// and never leak to the caller.
func fail(c *gin.Context, logger *logrus.Logger, err error) {
	f := classify(err)
	var details any
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		details = map[string]string{fe.Field: fe.Reason}
	}
	if f.status == http.StatusInternalServerError && logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"route":      c.FullPath(),
		}).Error("request failed")
	}
	response.Error[any](c, f.status, f.message, details)
}

// invalidPayload answers a binding failure.
func invalidPayload(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}

// bindOptionalJSON binds a JSON body that callers may omit entirely.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
