package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ha-bridge/internal/domain"
	"ha-bridge/internal/mailbox"
)

// drainMailbox stands in for the consumer loop: it answers repair and
// broadcast messages so handler tests can block on their replies.
func drainMailbox(t *testing.T, mbox *mailbox.Mailbox, stop <-chan struct{}) {
	t.Helper()
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			msg, err := mbox.Dequeue()
			if err != nil {
				if errors.Is(err, domain.ErrMailboxClosed) {
					return
				}
				time.Sleep(time.Millisecond)
				continue
			}
			switch m := msg.(type) {
			case domain.SnsRepairStatusRequest:
				m.ReplyTo.Deliver([]domain.RepairStatusItem{{
					Fid:      domain.Fid{Container: 0x72, Key: 0x1},
					Progress: 25,
					Status:   "M0_CMS_ACTIVE",
				}})
			case domain.BroadcastHAStates:
				ids := make([]domain.MessageID, len(m.States))
				for i := range m.States {
					ids[i] = domain.MessageID("msg-" + m.States[i].Fid.String())
				}
				if m.ReplyTo != nil {
					m.ReplyTo.Deliver(ids)
				}
			}
		}
	}()
}

func newTestServer(t *testing.T) (*httptest.Server, *mailbox.Mailbox) {
	t.Helper()
	mbox := mailbox.New()

	stop := make(chan struct{})
	drainMailbox(t, mbox, stop)
	t.Cleanup(func() {
		close(stop)
		mbox.Dispose()
	})

	handler := NewHAHandler(mbox, slog.Default())
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, mbox
}

func TestRepairStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/repair/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body RepairStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, 25, body.Items[0].Progress)
	assert.Equal(t, "M0_CMS_ACTIVE", body.Items[0].Status)
}

func TestRepairStatusRejectsNonGet(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/repair/status", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestBroadcastEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	reqBody := `{"states":[{"fid":"0x7200000000000001:0x2","status":"online"}]}`
	resp, err := http.Post(srv.URL+"/api/v1/broadcast", "application/json", strings.NewReader(reqBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body BroadcastResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.MessageIDs, 1)
	assert.Equal(t, domain.MessageID("msg-0x7200000000000001:0x2"), body.MessageIDs[0])
}

func TestBroadcastValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	for name, reqBody := range map[string]string{
		"bad fid":    `{"states":[{"fid":"nope","status":"online"}]}`,
		"bad status": `{"states":[{"fid":"0x72:0x2","status":"sideways"}]}`,
		"empty list": `{"states":[]}`,
		"not json":   `{{{`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/v1/broadcast", "application/json", strings.NewReader(reqBody))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBroadcastRequestToDomainStates(t *testing.T) {
	req := BroadcastRequest{States: []HAStateRequest{
		{Fid: "0x72:0x1", Status: "online"},
		{Fid: "0x72:0x2", Status: "failed"},
	}}

	states, err := req.ToDomainStates()
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, domain.HAStatusOnline, states[0].Status)
	assert.Equal(t, domain.HAState{
		Fid:    domain.Fid{Container: 0x72, Key: 0x2},
		Status: domain.HAStatusFailed,
	}, states[1])
}
