package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const toolkitBaseURL = "https://identitytoolkit.googleapis.com/v1"

var toolkitScopes = []string{
	"https://www.googleapis.com/auth/identitytoolkit",
	"https://www.googleapis.com/auth/cloud-platform",
}

// Revoker deletes an identity at the provider.
type Revoker interface {
	DeleteIdentity(ctx context.Context, uid string) error
}

// ToolkitRevoker deletes provider accounts through the Identity Toolkit
// REST API with a service-account OAuth2 client. One attempt per call.
type ToolkitRevoker struct {
	baseURL    string
	projectID  string
	httpClient *http.Client
	timeout    time.Duration
}

func NewToolkitRevoker(ctx context.Context, projectID string, credentialsJSON []byte, timeout time.Duration) (*ToolkitRevoker, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, toolkitScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to load identity credentials: %w", err)
	}
	if projectID == "" {
		projectID = creds.ProjectID
	}
	return newToolkitRevoker(toolkitBaseURL, projectID, oauth2.NewClient(ctx, creds.TokenSource), timeout), nil
}

func newToolkitRevoker(baseURL, projectID string, client *http.Client, timeout time.Duration) *ToolkitRevoker {
	return &ToolkitRevoker{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		projectID:  projectID,
		httpClient: client,
		timeout:    timeout,
	}
}

type toolkitError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r *ToolkitRevoker) DeleteIdentity(ctx context.Context, uid string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"localId": uid})
	if err != nil {
		return err
	}

	endpoint := r.baseURL + "/projects/" + url.PathEscape(r.projectID) + "/accounts:delete"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return classifyTransport("delete identity", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var te toolkitError
	_ = json.Unmarshal(raw, &te)
	if strings.HasPrefix(te.Error.Message, "USER_NOT_FOUND") {
		return fmt.Errorf("%w: %s", ErrIdentityNotFound, uid)
	}
	msg := te.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	return fmt.Errorf("%w: delete identity returned status %d: %s", ErrProviderUnavailable, resp.StatusCode, msg)
}

// DisabledRevoker stands in when no service-account credentials are
// configured.
type DisabledRevoker struct {
	Logger *slog.Logger
}

func (d DisabledRevoker) DeleteIdentity(ctx context.Context, uid string) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "identity revocation skipped: no credentials configured", "uid", uid)
	return ErrRevocationDisabled
}

// Enabled reports whether r actually reaches the provider.
func Enabled(r Revoker) bool {
	switch r.(type) {
	case nil, DisabledRevoker, *DisabledRevoker:
		return false
	}
	return true
}
