package client

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webbiemuchy/agrimarket/internal/api"
	"github.com/webbiemuchy/agrimarket/internal/models"
	"github.com/webbiemuchy/agrimarket/internal/pgp"
	"github.com/webbiemuchy/agrimarket/internal/realtime"
	"github.com/webbiemuchy/agrimarket/internal/repositories"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// startTestServer brings up the full API against an in-memory database and
// returns its base URL.
func startTestServer(t *testing.T) string {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db))

	prev := repositories.DB
	repositories.DB = db
	t.Cleanup(func() { repositories.DB = prev })

	hub := realtime.NewHub()
	go hub.Run()

	srv := httptest.NewServer(api.SetupRouter(hub))
	t.Cleanup(srv.Close)
	return srv.URL
}

func newTestParty(t *testing.T, baseURL string) *Client {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return New(baseURL, store)
}

func TestRegisterUploadsPublicKey(t *testing.T) {
	baseURL := startTestServer(t)

	c := newTestParty(t, baseURL)
	user, err := c.Register("amina@example.com", "s3cret-pw", "Amina", "Diallo", models.UserTypeFarmer)
	require.NoError(t, err)

	stored, err := repositories.FindUserByID(user.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PublicKey, "-----BEGIN PGP PUBLIC KEY BLOCK-----"))

	local, err := c.Keys.PublicKey()
	require.NoError(t, err)
	assert.Equal(t, local, stored.PublicKey)
}

func TestSendMessageEndToEnd(t *testing.T) {
	baseURL := startTestServer(t)

	farmerClient := newTestParty(t, baseURL)
	farmer, err := farmerClient.Register("amina@example.com", "s3cret-pw", "Amina", "Diallo", models.UserTypeFarmer)
	require.NoError(t, err)

	investorClient := newTestParty(t, baseURL)
	_, err = investorClient.Register("ben@example.com", "s3cret-pw", "Ben", "Okafor", models.UserTypeInvestor)
	require.NoError(t, err)

	project := &models.Project{FarmerID: farmer.ID, Title: "Drip Irrigation", Status: models.ProjectStatusApproved}
	require.NoError(t, repositories.CreateProject(project))

	const plaintext = "Can we schedule a site visit next week?"
	sent, err := investorClient.SendMessage(project.ID, farmer.ID, plaintext)
	require.NoError(t, err)

	// The server only ever sees ciphertext.
	var stored models.Message
	require.NoError(t, repositories.DB.First(&stored, "id = ?", sent.ID).Error)
	assert.True(t, pgp.IsEncrypted(stored.Content))
	assert.NotContains(t, stored.Content, plaintext)

	// Both parties read the same plaintext back.
	farmerView, err := farmerClient.Messages(project.ID)
	require.NoError(t, err)
	require.Len(t, farmerView, 1)
	assert.Equal(t, plaintext, farmerView[0].Content)

	investorView, err := investorClient.Messages(project.ID)
	require.NoError(t, err)
	require.Len(t, investorView, 1)
	assert.Equal(t, plaintext, investorView[0].Content)
}

func TestSendMessageRequiresRecipientKey(t *testing.T) {
	baseURL := startTestServer(t)

	farmer := &models.User{
		Email: "nokey@example.com", Password: "hash",
		FirstName: "No", LastName: "Key",
		UserType: models.UserTypeFarmer, IsActive: true,
	}
	require.NoError(t, repositories.CreateUser(farmer))
	project := &models.Project{FarmerID: farmer.ID, Title: "Greenhouse", Status: models.ProjectStatusApproved}
	require.NoError(t, repositories.CreateProject(project))

	investorClient := newTestParty(t, baseURL)
	_, err := investorClient.Register("ben@example.com", "s3cret-pw", "Ben", "Okafor", models.UserTypeInvestor)
	require.NoError(t, err)

	_, err = investorClient.SendMessage(project.ID, farmer.ID, "hello?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no public key")
}

func TestConversationsDecryptLastMessage(t *testing.T) {
	baseURL := startTestServer(t)

	farmerClient := newTestParty(t, baseURL)
	farmer, err := farmerClient.Register("amina@example.com", "s3cret-pw", "Amina", "Diallo", models.UserTypeFarmer)
	require.NoError(t, err)

	investorClient := newTestParty(t, baseURL)
	investor, err := investorClient.Register("ben@example.com", "s3cret-pw", "Ben", "Okafor", models.UserTypeInvestor)
	require.NoError(t, err)

	project := &models.Project{FarmerID: farmer.ID, Title: "Drip Irrigation", Status: models.ProjectStatusApproved}
	require.NoError(t, repositories.CreateProject(project))

	_, err = investorClient.SendMessage(project.ID, farmer.ID, "first")
	require.NoError(t, err)
	_, err = farmerClient.SendMessage(project.ID, investor.ID, "latest word")
	require.NoError(t, err)

	conversations, err := investorClient.Conversations()
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, "Drip Irrigation", conversations[0].ProjectTitle)
	assert.Equal(t, "latest word", conversations[0].LastMessage.Content)
	assert.Equal(t, farmer.ID, conversations[0].OtherParticipant.ID)
}

func TestLogoutClearsLocalKeys(t *testing.T) {
	baseURL := startTestServer(t)

	c := newTestParty(t, baseURL)
	_, err := c.Register("amina@example.com", "s3cret-pw", "Amina", "Diallo", models.UserTypeFarmer)
	require.NoError(t, err)

	require.NoError(t, c.Logout())

	key, err := c.Keys.PublicKey()
	require.NoError(t, err)
	assert.Empty(t, key)
}
