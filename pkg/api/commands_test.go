package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	path string
	form map[string]string
}

func commandServer(t *testing.T, status string, calls *[]recorded) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		*calls = append(*calls, recorded{path: r.URL.Path, form: form})
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"` + status + `"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCommandsEndpointsAndForms(t *testing.T) {
	var calls []recorded
	srv := commandServer(t, "success", &calls)
	c := NewCommands(srv.URL, "AB12", nil)
	ctx := context.Background()

	require.NoError(t, c.SendMessage(ctx, "", "Sammelruf"))
	require.NoError(t, c.SendMessage(ctx, "Florian 1", "privat"))
	require.NoError(t, c.UpdateNote(ctx, "Florian 1", "Notiz"))
	require.NoError(t, c.SetStatus(ctx, "Florian 1", "3"))
	require.NoError(t, c.ClearSpecial(ctx, "Florian 1"))
	require.NoError(t, c.ClearKurzstatus(ctx, "Florian 1"))
	require.NoError(t, c.RaiseNotice(ctx, "Florian 1", "SF Sprechwunsch"))
	require.NoError(t, c.AcknowledgeNotice(ctx, "Florian 1"))

	require.Len(t, calls, 8)
	assert.Equal(t, "/api/leitstelle/AB12/message", calls[0].path)
	_, hasTarget := calls[0].form["target_name"]
	assert.False(t, hasTarget, "broadcast message carries no target")
	assert.Equal(t, "privat", calls[1].form["message"])
	assert.Equal(t, "Florian 1", calls[1].form["target_name"])
	assert.Equal(t, "/api/leitstelle/AB12/update_note", calls[2].path)
	assert.Equal(t, "Notiz", calls[2].form["note"])
	assert.Equal(t, "/api/leitstelle/AB12/set_status", calls[3].path)
	assert.Equal(t, "3", calls[3].form["status"])
	assert.Equal(t, "/api/leitstelle/AB12/clear_special", calls[4].path)
	assert.Equal(t, "/api/leitstelle/AB12/clear_kurzstatus", calls[5].path)
	assert.Equal(t, "/api/staffelfuehrer/AB12/notice", calls[6].path)
	assert.Equal(t, "SF Sprechwunsch", calls[6].form["text"])
	assert.Equal(t, "/api/staffelfuehrer/AB12/acknowledge", calls[7].path)
}

func TestCommandsNonSuccessIsError(t *testing.T) {
	var calls []recorded
	srv := commandServer(t, "error", &calls)
	c := NewCommands(srv.URL, "AB12", nil)

	err := c.SetStatus(context.Background(), "Florian 1", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set_status")
}

func TestCommandsHTTPFailureIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := NewCommands(srv.URL, "AB12", nil)

	err := c.ClearSpecial(context.Background(), "Florian 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
