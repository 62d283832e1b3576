package req

// SignInReq is accepted as JSON or as a form post.
type SignInReq struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}
