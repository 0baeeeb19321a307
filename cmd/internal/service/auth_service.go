package service

import (
	"context"

	"notesweb/cmd/internal/contract"
	"notesweb/cmd/internal/domain/entity"
	cognitoclient "notesweb/cmd/internal/infrastructure/aws/cognito"
	"notesweb/cmd/internal/utils"
	"notesweb/cmd/internal/utils/apierror"
	"notesweb/cmd/internal/utils/uid"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/log"
)

type UserRepository interface {
	FindActiveByEmail(email string) (*entity.User, error)
	FindBySub(sub string) (*entity.User, error)
	ExistsActiveByEmail(email string) (bool, error)
	Create(user *entity.User) error
	Save(user *entity.User) error
}

// TokenValidator checks an ID token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*utils.TokenData, error)
}

// SignInResult is what a successful sign in yields: the local user, the
// Cognito tokens and the verified claims of the ID token.
type SignInResult struct {
	User   *entity.User
	Tokens *cognitoclient.AuthCreate
	Claims *utils.TokenData
}

func (r *SignInResult) Response() *contract.SignInResponse {
	return &contract.SignInResponse{
		AccessToken: r.Tokens.AccessToken,
		IDToken:     r.Tokens.IDToken,
		ExpiresIn:   r.Tokens.ExpiresIn,
		User:        ToUserResponse(r.User),
	}
}

type AuthService struct {
	UserRepo UserRepository
	Validate *validator.Validate
	Cognito  cognitoclient.CognitoInterface
	Verifier TokenValidator
}

func NewAuthService(userRepo UserRepository, validate *validator.Validate, cogClient cognitoclient.CognitoInterface, verifier TokenValidator) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Validate: validate,
		Cognito:  cogClient,
		Verifier: verifier,
	}
}

// SignUp creates a new user on Cognito (as well as in our database),
// and sends a verification code to the user's email address.
func (a *AuthService) SignUp(ctx context.Context, req *contract.SignUpRequest) (*contract.UserResponse, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	found, err := a.UserRepo.ExistsActiveByEmail(req.Email)
	if err != nil {
		log.Errorf("failed to check if user already exists: %v", err)
		return nil, apierror.InternalServerError
	}

	if found {
		return nil, apierror.UserAlreadyExistsError
	}

	sub, err := a.Cognito.SignUp(ctx, &cognitoclient.User{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, utils.MapCognitoError(err)
	}

	now := utils.NowUTC()
	user := &entity.User{
		ID:            uid.Generate(),
		SubUUID:       sub,
		Username:      req.Username,
		Email:         req.Email,
		EmailVerified: false,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := a.UserRepo.Create(user); err != nil {
		log.Errorf("failed to create user %s: %v", req.Email, err)
		if derr := a.Cognito.AdminDeleteUser(ctx, req.Email); derr != nil {
			log.Errorf("failed to roll back cognito user %s: %v", req.Email, derr)
		}
		return nil, apierror.InternalServerError
	}
	return ToUserResponse(user), nil
}

func (a *AuthService) ConfirmSignup(ctx context.Context, req *contract.ConfirmSignupRequest) apierror.ErrorResponse {
	utils.Sanitize(req)
	if err := a.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}

	user, err := a.UserRepo.FindActiveByEmail(req.Email)
	if err != nil {
		log.Errorf("failed to fetch user from database: %v", err)
		return apierror.InternalServerError
	}

	if user != nil && user.EmailVerified {
		return apierror.UserAlreadyConfirmedError
	}

	err = a.Cognito.ConfirmAccount(ctx, &cognitoclient.UserConfirmation{
		Email: req.Email,
		Code:  req.Code,
	})
	if err != nil {
		return utils.MapCognitoError(err)
	}

	// Users created straight on the pool get their row on first sign in
	if user == nil {
		return nil
	}

	user.EmailVerified = true
	user.UpdatedAt = utils.NowUTC()
	if err := a.UserRepo.Save(user); err != nil {
		log.Errorf("failed to update user (%d) verified status: %v", user.ID, err)
	}
	return nil
}

func (a *AuthService) ResendConfirmation(ctx context.Context, req *contract.ResendConfirmRequest) apierror.ErrorResponse {
	utils.Sanitize(req)
	if err := a.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}

	user, err := a.UserRepo.FindActiveByEmail(req.Email)
	if err != nil {
		log.Errorf("failed to find user (%s) by email: %v", req.Email, err)
		return apierror.InternalServerError
	}

	if user != nil && user.EmailVerified {
		return apierror.UserAlreadyConfirmedError
	}

	if err := a.Cognito.ResendConfirmation(ctx, req.Email); err != nil {
		return utils.MapCognitoError(err)
	}
	return nil
}

// SignIn authenticates against Cognito and verifies the returned ID token
// before trusting any of its claims.
func (a *AuthService) SignIn(ctx context.Context, req *contract.SignInRequest) (*SignInResult, apierror.ErrorResponse) {
	utils.Sanitize(req)
	if err := a.Validate.Struct(req); err != nil {
		return nil, apierror.FromValidationError(err)
	}

	auth, err := a.Cognito.SignIn(ctx, &cognitoclient.UserLogin{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, utils.MapCognitoError(err)
	}

	claims, err := a.Verifier.Validate(auth.IDToken)
	if err != nil {
		log.Errorf("cognito issued an ID token we could not verify: %v", err)
		return nil, apierror.InternalServerError
	}

	user, apierr := a.resolveUser(claims)
	if apierr != nil {
		return nil, apierr
	}
	return &SignInResult{User: user, Tokens: auth, Claims: claims}, nil
}

// Authenticate resolves a bearer ID token into the local user it belongs to.
func (a *AuthService) Authenticate(token string) (*entity.User, *utils.TokenData, apierror.ErrorResponse) {
	claims, err := a.Verifier.Validate(token)
	if err != nil {
		log.Debugf("rejected token: %v", err)
		return nil, nil, apierror.InvalidAuthTokenError
	}

	user, apierr := a.resolveUser(claims)
	if apierr != nil {
		return nil, nil, apierr
	}
	return user, claims, nil
}

// SignOut invalidates every token of the user on Cognito. A failure there does
// not keep the caller signed in, it is only logged.
func (a *AuthService) SignOut(ctx context.Context, req *contract.SignOutRequest) apierror.ErrorResponse {
	utils.Sanitize(req)
	if err := a.Validate.Struct(req); err != nil {
		return apierror.FromValidationError(err)
	}

	if err := a.Cognito.GlobalSignOut(ctx, req.AccessToken); err != nil {
		log.Warnf("failed to sign out globally: %v", err)
	}
	return nil
}

// resolveUser finds the local user of a verified token, creating it when the
// identity was registered outside this application.
func (a *AuthService) resolveUser(claims *utils.TokenData) (*entity.User, apierror.ErrorResponse) {
	user, err := a.UserRepo.FindBySub(claims.Sub)
	if err != nil {
		log.Errorf("failed to find user (%s) by sub: %v", claims.Sub, err)
		return nil, apierror.InternalServerError
	}

	if user == nil {
		return a.createFromClaims(claims)
	}

	if !user.CanSignIn() {
		return nil, apierror.MissingAccessError
	}

	// Cognito only hands tokens to confirmed users
	if !user.EmailVerified {
		user.EmailVerified = true
		user.UpdatedAt = utils.NowUTC()
		if err := a.UserRepo.Save(user); err != nil {
			log.Errorf("failed to mark user (%d) as verified: %v", user.ID, err)
		}
	}
	return user, nil
}

func (a *AuthService) createFromClaims(claims *utils.TokenData) (*entity.User, apierror.ErrorResponse) {
	username := claims.Username
	if username == "" {
		username = claims.Email
	}

	now := utils.NowUTC()
	user := &entity.User{
		ID:            uid.Generate(),
		SubUUID:       claims.Sub,
		Username:      username,
		Email:         claims.Email,
		EmailVerified: true,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := a.UserRepo.Create(user); err != nil {
		log.Errorf("failed to create user for sub %s: %v", claims.Sub, err)
		return nil, apierror.InternalServerError
	}
	return user, nil
}

func ToUserResponse(user *entity.User) *contract.UserResponse {
	return &contract.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: utils.FormatEpoch(user.CreatedAt),
	}
}
