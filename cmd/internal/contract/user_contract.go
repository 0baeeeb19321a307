package contract

type SignUpRequest struct {
	Username string `json:"username" form:"username" validate:"required,min=2,max=80"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=64,hasspecial,hasdigit,hasupper,haslower"`
}

type SignInRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=8,max=64"`
}

type ConfirmSignupRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
	Code  string `json:"code" form:"code" validate:"required,min=1,max=8"`
}

type ResendConfirmRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

type SignOutRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

type SignInResponse struct {
	AccessToken string        `json:"access_token"`
	IDToken     string        `json:"id_token"`
	ExpiresIn   int32         `json:"expires_in"`
	User        *UserResponse `json:"user"`
}
