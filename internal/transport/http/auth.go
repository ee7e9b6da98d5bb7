package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/arcade/internal/service/account"
	"github.com/iamasit07/arcade/internal/transport/http/middleware"
	"github.com/iamasit07/arcade/pkg/httputil"
)

type AuthHandler struct {
	Service *account.Service
}

func NewAuthHandler(service *account.Service) *AuthHandler {
	return &AuthHandler{Service: service}
}

type userResponse struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AccountType string `json:"accountType"`
}

type sessionResponse struct {
	User      userResponse `json:"user"`
	AccessExp int64        `json:"accessExp"`
}

type guestRequest struct {
	Name string `json:"name" binding:"required,alphanum,min=5,max=30"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type codeRequest struct {
	Code string `json:"code" binding:"required,len=6"`
}

type passRequest struct {
	Pass string `json:"pass" binding:"required,min=8,max=72"`
	Code string `json:"code" binding:"required,len=6"`
}

type emailCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

type emailPassRequest struct {
	Email string `json:"email" binding:"required,email"`
	Pass  string `json:"pass" binding:"required"`
}

// respondSession sets both cookies and answers with the identity and the
// access expiry in unix milliseconds.
func respondSession(c *gin.Context, status int, sess *account.Session) {
	httputil.SetAuthCookies(c.Writer, sess.Access, sess.AccessExp, sess.Refresh, sess.RefreshExp)
	c.JSON(status, sessionResponse{
		User: userResponse{
			Username:    sess.User.Username,
			DisplayName: sess.User.DisplayName,
			AccountType: sess.User.AccountType,
		},
		AccessExp: sess.AccessExp.UnixMilli(),
	})
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, account.ErrInvalidRefresh):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
	case errors.Is(err, account.ErrBadCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, account.ErrInvalidCode):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired code"})
	case errors.Is(err, account.ErrNoEmail):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Set up an email first"})
	case errors.Is(err, account.ErrAlreadyVerified):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Email already verified"})
	case errors.Is(err, account.ErrEmailTaken):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Email already in use"})
	case errors.Is(err, account.ErrUserNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
	default:
		log.Printf("[AUTH] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// username is only called behind RequireAuth.
func username(c *gin.Context) string {
	claims, _ := middleware.Claims(c)
	if claims == nil {
		return ""
	}
	return claims.Username
}

func (h *AuthHandler) Guest(c *gin.Context) {
	var req guestRequest
	if !bind(c, &req) {
		return
	}
	sess, err := h.Service.CreateGuest(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSession(c, http.StatusCreated, sess)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	refresh, err := httputil.GetRefreshToken(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No refresh token provided"})
		return
	}
	if err := h.Service.Logout(c.Request.Context(), refresh); err != nil {
		log.Printf("[AUTH] Logout with stale refresh token: %v", err)
	}
	httputil.ClearAuthCookies(c.Writer)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := httputil.GetRefreshToken(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	sess, err := h.Service.Refresh(c.Request.Context(), refresh)
	if err != nil {
		httputil.ClearAuthCookies(c.Writer)
		respondError(c, err)
		return
	}
	respondSession(c, http.StatusOK, sess)
}

func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	var exp int64
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.UnixMilli()
	}
	c.JSON(http.StatusOK, sessionResponse{
		User: userResponse{
			Username:    claims.Username,
			DisplayName: claims.DisplayName,
			AccountType: claims.AccountType,
		},
		AccessExp: exp,
	})
}

func (h *AuthHandler) SetupEmail(c *gin.Context) {
	var req emailRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Service.SetupEmail(c.Request.Context(), username(c), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req codeRequest
	if !bind(c, &req) {
		return
	}
	sess, err := h.Service.VerifyEmail(c.Request.Context(), username(c), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSession(c, http.StatusOK, sess)
}

func (h *AuthHandler) RequestPassCode(c *gin.Context) {
	if err := h.Service.RequestPassCode(c.Request.Context(), username(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password code sent"})
}

func (h *AuthHandler) SetPassword(c *gin.Context) {
	var req passRequest
	if !bind(c, &req) {
		return
	}
	sess, err := h.Service.SetPassword(c.Request.Context(), username(c), req.Pass, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSession(c, http.StatusOK, sess)
}

func (h *AuthHandler) GetLoginCode(c *gin.Context) {
	var req emailRequest
	if !bind(c, &req) {
		return
	}
	if err := h.Service.SendLoginCode(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, a code is on its way"})
}

func (h *AuthHandler) UseLoginCode(c *gin.Context) {
	var req emailCodeRequest
	if !bind(c, &req) {
		return
	}
	sess, err := h.Service.LoginWithCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSession(c, http.StatusOK, sess)
}

func (h *AuthHandler) LoginWithPassword(c *gin.Context) {
	var req emailPassRequest
	if !bind(c, &req) {
		return
	}
	sess, err := h.Service.LoginWithPassword(c.Request.Context(), req.Email, req.Pass)
	if err != nil {
		respondError(c, err)
		return
	}
	respondSession(c, http.StatusOK, sess)
}
