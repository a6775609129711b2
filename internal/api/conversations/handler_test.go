package conversations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/encorelive/encore-backend/internal/chat"
	"github.com/encorelive/encore-backend/internal/entitlement"
	"github.com/encorelive/encore-backend/internal/middleware"
	"github.com/encorelive/encore-backend/internal/models"
	"github.com/encorelive/encore-backend/internal/moderation"
	"github.com/encorelive/encore-backend/internal/storage/memory"
	"github.com/encorelive/encore-backend/internal/typing"
	"github.com/encorelive/encore-backend/internal/ws"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type leaseWrite struct {
	key    string
	ctxErr error
}

// recordingLeaseStore notes the context state at write time; a write on a
// cancelled context is the failure mode under test.
type recordingLeaseStore struct {
	mu     sync.Mutex
	writes []leaseWrite
}

func (s *recordingLeaseStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, leaseWrite{key: key, ctxErr: ctx.Err()})
	return ctx.Err()
}

func (s *recordingLeaseStore) Delete(ctx context.Context, key string) error { return ctx.Err() }

func (s *recordingLeaseStore) List(ctx context.Context, prefix string) ([]string, error) {
	return nil, ctx.Err()
}

func (s *recordingLeaseStore) snapshot() []leaseWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]leaseWrite, len(s.writes))
	copy(out, s.writes)
	return out
}

type wsFixture struct {
	server *httptest.Server
	leases *recordingLeaseStore
	conv   *models.Conversation
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	ctx := context.Background()

	grants := memory.NewGrantStore()
	grants.AddOrder(models.Order{ID: "o-alice", UserID: "alice", EventID: "e1", Status: models.OrderConfirmed})
	grants.AddOrder(models.Order{ID: "o-bob", UserID: "bob", EventID: "e1", Status: models.OrderConfirmed})

	events := memory.NewEventStore()
	events.AddEvent(models.Event{ID: "e1", StartTime: time.Now().Add(-time.Hour)})

	convs := memory.NewConversationStore()
	ledger := moderation.NewLedger(memory.NewModerationStore(), convs)
	resolver := entitlement.NewResolver(grants, grants, grants)
	service := chat.NewService(convs, events, ledger, resolver)

	conv, err := service.Initiate(ctx, "alice", "bob", "e1")
	require.NoError(t, err)
	conv, err = service.Accept(ctx, conv.ID, "bob")
	require.NoError(t, err)

	hub := ws.NewHub()
	go hub.Run()

	leases := &recordingLeaseStore{}
	presence := typing.NewPresence(leases, hub)

	router := mux.NewRouter()
	RegisterRoutes(router, &Handler{Service: service, Presence: presence, Hub: hub})
	server := httptest.NewServer(middleware.Auth(testSecret)(router))
	t.Cleanup(server.Close)

	return &wsFixture{server: server, leases: leases, conv: conv}
}

func (f *wsFixture) dial(t *testing.T, userID string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") +
		"/ws/conversations?conversation_id=" + f.conv.ID + "&token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

// TestServeWS_TypingLeaseOutlivesRequest: typing frames arrive after the
// upgrade handler has returned and its request context was cancelled, so
// the read pump must write leases on a live context.
func TestServeWS_TypingLeaseOutlivesRequest(t *testing.T) {
	f := newWSFixture(t)

	conn, _, err := f.dial(t, "alice")
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"typing":true,"userName":"Alice"}`)))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(f.leases.snapshot()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	writes := f.leases.snapshot()
	require.NotEmpty(t, writes, "typing frame never reached the lease store")
	assert.NoError(t, writes[0].ctxErr)
	assert.Contains(t, writes[0].key, "typing:dm:"+f.conv.ID+":alice")
}

func TestServeWS_NonParticipantDenied(t *testing.T) {
	f := newWSFixture(t)

	conn, resp, err := f.dial(t, "eve")
	require.Error(t, err)
	if conn != nil {
		conn.Close()
	}
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
