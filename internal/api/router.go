package api

import (
	"fmt"
	"log"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "github.com/webbiemuchy/agrimarket/docs"

	"github.com/rs/cors"
	"github.com/webbiemuchy/agrimarket/internal/api/handlers"
	"github.com/webbiemuchy/agrimarket/internal/api/middleware"
	"github.com/webbiemuchy/agrimarket/internal/config"
	"github.com/webbiemuchy/agrimarket/internal/realtime"
	"github.com/webbiemuchy/agrimarket/internal/utils"
)

func SetupRouter(hub *realtime.Hub) http.Handler {
	handlers.Hub = hub

	mainMux := http.NewServeMux()
	c := cors.New(config.Envs.CorsConfig)

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	authMux := http.NewServeMux()
	authMux.HandleFunc("/register", handlers.RegisterUser)
	authMux.HandleFunc("/login", handlers.LoginUser)
	authMux.HandleFunc("/google/login", handlers.HandleGoogleLogin)
	authMux.HandleFunc("/google/callback", handlers.HandleGoogleCallback)

	mainMux.Handle("/api/auth/",
		http.StripPrefix("/api/auth", authMux),
	)

	// Websocket endpoint: token comes from header, cookie, or query so
	// browser clients can connect. The user room is joined server-side.
	mainMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		tokenStr := middleware.TokenFromRequest(r)
		userID, err := middleware.ParseUserID(tokenStr)
		if err != nil {
			utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
				Success: false,
				Message: "Unauthorized",
			})
			return
		}
		realtime.ServeWS(hub, w, r, userID)
	})

	// ---------- PROTECTED ROUTES ----------
	protectedMux := http.NewServeMux()

	protectedMux.HandleFunc("GET /auth/profile", handlers.GetProfile)
	protectedMux.HandleFunc("POST /auth/logout", handlers.Logout)

	protectedMux.HandleFunc("GET /chats", handlers.GetConversations)
	protectedMux.HandleFunc("GET /chats/{id}", handlers.GetChat)
	protectedMux.HandleFunc("POST /chats/{id}", handlers.PostChatMessage)

	protectedMux.HandleFunc("GET /notifications", handlers.ListNotifications)
	protectedMux.HandleFunc("POST /notifications", handlers.CreateNotification)
	protectedMux.HandleFunc("PATCH /notifications/{id}/read", handlers.MarkNotificationRead)
	protectedMux.HandleFunc("PATCH /notifications/mark-all-read", handlers.MarkAllNotificationsRead)

	protectedMux.HandleFunc("PUT /users/me/publicKey", handlers.UpdatePublicKey)
	protectedMux.HandleFunc("GET /users/{id}", handlers.GetUser)

	protectedMux.HandleFunc("POST /projects", handlers.CreateProject)
	protectedMux.HandleFunc("PATCH /projects/{id}/status", handlers.UpdateProjectStatus)
	protectedMux.HandleFunc("POST /projects/{id}/documents/presign", handlers.PresignDocumentUpload)
	protectedMux.HandleFunc("POST /projects/{id}/documents/{docId}/complete", handlers.CompleteDocumentUpload)
	protectedMux.HandleFunc("GET /projects/{id}/documents", handlers.ListProjectDocuments)
	protectedMux.HandleFunc("GET /projects/{id}/documents/{docId}/download", handlers.PresignDocumentDownload)

	mainMux.Handle("/api/",
		http.StripPrefix(
			"/api",
			middleware.AuthMiddleware(protectedMux),
		),
	)

	log.Println("Router initialized")
	handler := c.Handler(mainMux)
	handler = middleware.Logger(handler)
	return handler
}
