package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/webbiemuchy/agrimarket/internal/models"
	"github.com/webbiemuchy/agrimarket/internal/pgp"
)

// Client talks to the AgriMarket API, encrypting outgoing chat messages and
// decrypting incoming ones with the local keyring.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Keys    *Keyring

	token string
	user  *models.User
}

func New(baseURL string, store SecretStore) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Keys:    &Keyring{Store: store},
	}
}

// Conversation mirrors the server's derived conversation summary.
type Conversation struct {
	ProjectID        uuid.UUID `json:"projectId"`
	ProjectTitle     string    `json:"projectTitle"`
	OtherParticipant struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	} `json:"otherParticipant"`
	LastMessage struct {
		Content   string    `json:"content"`
		Timestamp time.Time `json:"timestamp"`
	} `json:"lastMessage"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: %s (status %d)", method, path, env.Message, resp.StatusCode)
	}
	if out != nil && env.Data != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

type authResult struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Login authenticates and makes sure a local keypair exists, uploading the
// public key when one is freshly generated. Key generation failure does
// not fail the login; the client then operates in plaintext-fallback mode.
func (c *Client) Login(email, password string) (*models.User, error) {
	var res authResult
	err := c.do(http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.Token
	c.user = &res.User

	identity := Identity{Name: res.User.FullName(), Email: res.User.Email}
	if err := c.Keys.EnsureKeys(identity, c.UploadPublicKey); err != nil {
		fmt.Println("Key setup failed, continuing without encryption:", err)
	}
	return c.user, nil
}

// Register creates an account, then runs the same key setup as Login.
func (c *Client) Register(email, password, firstName, lastName, userType string) (*models.User, error) {
	var res authResult
	err := c.do(http.MethodPost, "/api/auth/register", map[string]string{
		"email":     email,
		"password":  password,
		"firstName": firstName,
		"lastName":  lastName,
		"userType":  userType,
	}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.Token
	c.user = &res.User

	identity := Identity{Name: res.User.FullName(), Email: res.User.Email}
	if err := c.Keys.EnsureKeys(identity, c.UploadPublicKey); err != nil {
		fmt.Println("Key setup failed, continuing without encryption:", err)
	}
	return c.user, nil
}

// Logout ends the session and destroys local key material.
func (c *Client) Logout() error {
	if err := c.do(http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	c.user = nil
	return c.Keys.Clear()
}

// UploadPublicKey stores the armored public key on the server.
func (c *Client) UploadPublicKey(publicKey string) error {
	return c.do(http.MethodPut, "/api/users/me/publicKey",
		map[string]string{"publicKey": publicKey}, nil)
}

// RecipientKey fetches another user's armored public key.
func (c *Client) RecipientKey(userID uuid.UUID) (string, error) {
	var res struct {
		User struct {
			PublicKey string `json:"publicKey"`
		} `json:"user"`
	}
	if err := c.do(http.MethodGet, "/api/users/"+userID.String(), nil, &res); err != nil {
		return "", err
	}
	return res.User.PublicKey, nil
}

// SendMessage encrypts the text to the recipient's public key and, when the
// local public key is available, to the sender's own key as well, so sent
// history stays readable. Encryption failure blocks the send.
func (c *Client) SendMessage(projectID, recipientID uuid.UUID, text string) (*models.Message, error) {
	theirKey, err := c.RecipientKey(recipientID)
	if err != nil {
		return nil, err
	}
	if theirKey == "" {
		return nil, fmt.Errorf("recipient has no public key")
	}

	keys := []string{theirKey}
	if myKey, err := c.Keys.PublicKey(); err == nil && myKey != "" {
		keys = append(keys, myKey)
	}

	encrypted, err := pgp.Encode(text, keys...)
	if err != nil {
		return nil, fmt.Errorf("encrypt message: %w", err)
	}

	var res struct {
		Message models.Message `json:"message"`
	}
	err = c.do(http.MethodPost, "/api/chats/"+projectID.String(), map[string]any{
		"recipientId": recipientID,
		"content":     encrypted,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res.Message, nil
}

// Messages returns the project's history with every decryptable message
// decrypted. Rows that fail to decrypt keep their raw content.
func (c *Client) Messages(projectID uuid.UUID) ([]models.Message, error) {
	var res struct {
		Messages []models.Message `json:"messages"`
	}
	if err := c.do(http.MethodGet, "/api/chats/"+projectID.String(), nil, &res); err != nil {
		return nil, err
	}

	keyring, err := c.Keys.LoadPrivateKey()
	if err != nil {
		return nil, err
	}
	for i := range res.Messages {
		res.Messages[i].Content = pgp.Decode(res.Messages[i].Content, keyring)
	}
	return res.Messages, nil
}

// Conversations returns the summaries with last messages decrypted.
func (c *Client) Conversations() ([]Conversation, error) {
	var res struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := c.do(http.MethodGet, "/api/chats", nil, &res); err != nil {
		return nil, err
	}

	keyring, err := c.Keys.LoadPrivateKey()
	if err != nil {
		return nil, err
	}
	for i := range res.Conversations {
		res.Conversations[i].LastMessage.Content =
			pgp.Decode(res.Conversations[i].LastMessage.Content, keyring)
	}
	return res.Conversations, nil
}
