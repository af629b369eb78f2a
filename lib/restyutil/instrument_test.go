package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	lock     sync.Mutex
	messages map[string]string
}

func (o *memoryOutput) Write(id string, contents string) {
	o.lock.Lock()
	defer o.lock.Unlock()
	if o.messages == nil {
		o.messages = map[string]string{}
	}
	o.messages[id] = contents
}

func TestInstrumentClientDumpsMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Set-Cookie", "session=rotated")
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"ok":false}`))
	}))
	defer server.Close()

	out := &memoryOutput{}
	client := resty.New()
	InstrumentClient(client, "cashback", nil, out)

	res, err := client.R().
		SetHeader("Cookie", "session=secret").
		SetBody(`{"hello":"world"}`).
		Post(server.URL + "/api/cashback/search")
	require.NoError(t, err)
	require.Equal(t, http.StatusTeapot, res.StatusCode())

	require.Len(t, out.messages, 1)
	dump, ok := out.messages["cashback-1"]
	require.True(t, ok)
	require.Contains(t, dump, "POST "+server.URL+"/api/cashback/search")
	require.Contains(t, dump, "418")
	require.Contains(t, dump, `{"ok":false}`)
	require.NotContains(t, dump, "secret")
	require.NotContains(t, dump, "rotated")
	require.True(t, strings.Contains(dump, "Cookie: <redacted>"))
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resty")
	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	out.Write("orders-1", "hello")
	contents, err := os.ReadFile(filepath.Join(dir, "orders-1.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(contents))
}
