package cognitoclient

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	cognito "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

// User is the default user struct for all basic Cognito operations.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserConfirmation is the default structure for approving e-mail verification.
type UserConfirmation struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// UserLogin defines the standard structure for logging in to the application.
type UserLogin struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthCreate represents the response of Cognito sign in approval.
type AuthCreate struct {
	IDToken      string `json:"id_token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int32  `json:"expires_in"`
}

type CognitoInterface interface {
	SignUp(ctx context.Context, user *User) (string, error)
	SignIn(ctx context.Context, user *UserLogin) (*AuthCreate, error)
	GlobalSignOut(ctx context.Context, accessToken string) error
	ConfirmAccount(ctx context.Context, user *UserConfirmation) error
	ResendConfirmation(ctx context.Context, email string) error
	AdminDeleteUser(ctx context.Context, email string) error
}

type cognitoClient struct {
	client      *cognito.Client
	appClientID string
	userPoolID  string
}

func NewCognitoClient(ctx context.Context, region, userPoolID, appClientID string) (CognitoInterface, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &cognitoClient{
		client:      cognito.NewFromConfig(cfg),
		appClientID: appClientID,
		userPoolID:  userPoolID,
	}, nil
}

// SignUp creates a new user row on Cognito and return its "sub" (the UUID)
func (c *cognitoClient) SignUp(ctx context.Context, user *User) (string, error) {
	out, err := c.client.SignUp(ctx, &cognito.SignUpInput{
		ClientId: aws.String(c.appClientID),
		Username: aws.String(user.Email),
		Password: aws.String(user.Password),
		UserAttributes: []types.AttributeType{
			{
				Name:  aws.String("email"),
				Value: aws.String(user.Email),
			},
			{
				Name:  aws.String("preferred_username"),
				Value: aws.String(user.Username),
			},
		},
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.UserSub), nil
}

// GlobalSignOut signs out all the user session in all devices.
// In other words, it invalidates all the existing JWT tokens
func (c *cognitoClient) GlobalSignOut(ctx context.Context, accessToken string) error {
	_, err := c.client.GlobalSignOut(ctx, &cognito.GlobalSignOutInput{
		AccessToken: aws.String(accessToken),
	})
	return err
}

// ConfirmAccount is used to verify the user's e-mail address
func (c *cognitoClient) ConfirmAccount(ctx context.Context, user *UserConfirmation) error {
	_, err := c.client.ConfirmSignUp(ctx, &cognito.ConfirmSignUpInput{
		Username:         aws.String(user.Email),
		ConfirmationCode: aws.String(user.Code),
		ClientId:         aws.String(c.appClientID),
	})
	return err
}

// ResendConfirmation resends the verification code to the provided e-mail
func (c *cognitoClient) ResendConfirmation(ctx context.Context, email string) error {
	_, err := c.client.ResendConfirmationCode(ctx, &cognito.ResendConfirmationCodeInput{
		Username: aws.String(email),
		ClientId: aws.String(c.appClientID),
	})
	return err
}

// AdminDeleteUser removes a user from the pool, used to roll back a sign up
// whose local bookkeeping failed.
func (c *cognitoClient) AdminDeleteUser(ctx context.Context, email string) error {
	_, err := c.client.AdminDeleteUser(ctx, &cognito.AdminDeleteUserInput{
		UserPoolId: aws.String(c.userPoolID),
		Username:   aws.String(email),
	})
	return err
}

// SignIn signs the user in... pretty straightforward
func (c *cognitoClient) SignIn(ctx context.Context, user *UserLogin) (*AuthCreate, error) {
	result, err := c.client.InitiateAuth(ctx, &cognito.InitiateAuthInput{
		AuthFlow: types.AuthFlowTypeUserPasswordAuth,
		AuthParameters: map[string]string{
			"USERNAME": user.Email,
			"PASSWORD": user.Password,
		},
		ClientId: aws.String(c.appClientID),
	})
	if err != nil {
		return nil, err
	}

	auth := result.AuthenticationResult
	if auth == nil {
		// MFA and password change challenges are not supported by this app.
		return nil, errors.New("cognito returned a challenge instead of tokens: " + string(result.ChallengeName))
	}

	return &AuthCreate{
		IDToken:      aws.ToString(auth.IdToken),
		AccessToken:  aws.ToString(auth.AccessToken),
		RefreshToken: aws.ToString(auth.RefreshToken),
		ExpiresIn:    auth.ExpiresIn,
	}, nil
}
