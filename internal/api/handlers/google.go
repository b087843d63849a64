package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/webbiemuchy/agrimarket/internal/api/services"
	"github.com/webbiemuchy/agrimarket/internal/config"
	"github.com/webbiemuchy/agrimarket/internal/models"
	"github.com/webbiemuchy/agrimarket/internal/repositories"
	"gorm.io/gorm"
)

// GET /api/auth/google/login?redirect=login|register&role=farmer|investor
func HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	redirectType := r.URL.Query().Get("redirect")
	if redirectType == "" {
		redirectType = "login"
	}
	role := r.URL.Query().Get("role")
	if role != models.UserTypeFarmer {
		role = models.UserTypeInvestor
	}

	state, err := GenerateState(map[string]string{"flow": redirectType, "role": role})
	if err != nil {
		http.Error(w, "Failed to generate OAuth state", http.StatusInternalServerError)
		return
	}

	url := services.GoogleOauthConfig.AuthCodeURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GET /api/auth/google/callback
func HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.FormValue("state")
	stateData, err := DecodeState(state)
	if err != nil {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}

	flowType := stateData["flow"]
	code := r.FormValue("code")
	frontend := strings.TrimRight(config.Envs.FrontendURL, "/")

	token, err := services.GoogleOauthConfig.Exchange(context.Background(), code)
	if err != nil {
		http.Error(w, "Code exchange failed", http.StatusInternalServerError)
		fmt.Println("Exchange error:", err)
		return
	}

	client := services.GoogleOauthConfig.Client(context.Background(), token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	var googleUser struct {
		ID         string `json:"id"`
		Email      string `json:"email"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
	}
	if err := json.Unmarshal(data, &googleUser); err != nil {
		http.Error(w, "Failed to parse user info", http.StatusInternalServerError)
		return
	}

	user, err := repositories.FindUserByEmail(googleUser.Email)

	switch flowType {
	case "register":
		if err == nil {
			http.Redirect(w, r, frontend+"/login?error=user_already_exists", http.StatusTemporaryRedirect)
			return
		}
		newUser := models.User{
			Email:     googleUser.Email,
			Password:  "", // Google-authenticated
			FirstName: googleUser.GivenName,
			LastName:  googleUser.FamilyName,
			UserType:  stateData["role"],
			IsActive:  true,
		}
		if err := repositories.CreateUser(&newUser); err != nil {
			http.Error(w, "Failed to create user", http.StatusInternalServerError)
			return
		}
		user = &newUser

	default: // login
		if err == gorm.ErrRecordNotFound {
			http.Redirect(w, r, frontend+"/register?error=user_not_found", http.StatusTemporaryRedirect)
			return
		} else if err != nil {
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
	}

	jwtToken, err := issueToken(user)
	if err != nil {
		http.Error(w, "Failed to create JWT", http.StatusInternalServerError)
		return
	}
	setAuthCookie(w, jwtToken)

	redirectURL := frontend + "/dashboard?status=success_login"
	if flowType == "register" {
		redirectURL = frontend + "/dashboard?status=success_register"
	}
	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}
