package utils

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"notesweb/cmd/internal/utils/apierror"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/labstack/gommon/log"
)

func FormatEpoch(millis int64) string {
	return time.UnixMilli(millis).
		UTC().
		Format(time.RFC3339)
}

func NowUTC() int64 {
	return time.Now().
		UTC().
		UnixMilli()
}

func MapCognitoError(err error) apierror.ErrorResponse {
	var (
		invalidPwd    *types.InvalidPasswordException
		userExists    *types.UsernameExistsException
		userNotFound  *types.UserNotFoundException
		notConfirmed  *types.UserNotConfirmedException
		notAuthorized *types.NotAuthorizedException
		codeMismatch  *types.CodeMismatchException
		expiredCode   *types.ExpiredCodeException
		invalidParam  *types.InvalidParameterException
		tooMany       *types.TooManyRequestsException
		limitExceeded *types.LimitExceededException
	)

	switch {
	case errors.As(err, &invalidPwd):
		return apierror.IDPInvalidPasswordError
	case errors.As(err, &userExists):
		return apierror.IDPExistingEmailError
	case errors.As(err, &userNotFound):
		return apierror.IDPUserNotFoundError
	case errors.As(err, &notConfirmed):
		return apierror.IDPUserNotConfirmedError
	case errors.As(err, &notAuthorized):
		return apierror.IDPCredentialsMismatchError
	case errors.As(err, &codeMismatch):
		return apierror.IDPConfirmCodeMismatchError
	case errors.As(err, &expiredCode):
		return apierror.IDPConfirmCodeExpiredError
	case errors.As(err, &invalidParam):
		return apierror.IDPInvalidParameterError
	case errors.As(err, &tooMany), errors.As(err, &limitExceeded):
		return apierror.IDPTooManyRequestsError
	default:
		// Log the original underlying error for debugging purposes
		log.Errorf("unmapped cognito error: %v", err)
		return apierror.InternalServerError
	}
}

// Sanitize trims every exported string field of the struct pointed to by o.
// Passwords are left untouched.
func Sanitize(o any) {
	v := reflect.ValueOf(o)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		panic("sanitize: expected pointer to struct")
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		panic("sanitize: expected struct")
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() || t.Field(i).Name == "Password" {
			continue
		}

		if field.Kind() == reflect.String {
			field.SetString(strings.TrimSpace(field.String()))
		}
	}
}
