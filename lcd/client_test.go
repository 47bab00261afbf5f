package lcd_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Cogwheel-Validator/reified-portal/lcd"
	"github.com/zeebo/assert"
)

func fastConfig() lcd.FailoverConfig {
	return lcd.FailoverConfig{
		MaxRetries:          2,
		RetryDelay:          time.Millisecond,
		HealthCheckInterval: time.Hour,
		Timeout:             2 * time.Second,
	}
}

func TestGetDecodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.URL.Path, "/nft/denoms/asset01")
		_, _ = w.Write([]byte(`{"denom":{"id":"asset01"}}`))
	}))
	defer srv.Close()

	client, err := lcd.NewWithFailover(srv.URL, nil, fastConfig())
	assert.NoError(t, err)
	defer client.Close()

	var out struct {
		Denom struct {
			ID string `json:"id"`
		} `json:"denom"`
	}
	assert.NoError(t, client.Get(context.Background(), "/nft/denoms/asset01", &out))
	assert.Equal(t, out.Denom.ID, "asset01")
}

func TestNotFoundIsNotRetried(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "http 404", status: http.StatusNotFound, body: `{}`},
		{name: "grpc not found", status: http.StatusInternalServerError, body: `{"code":5,"message":"account cudos1xyz not found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := lcd.NewWithFailover(srv.URL, nil, fastConfig())
			assert.NoError(t, err)

			err = client.Get(context.Background(), "/anything", nil)
			assert.True(t, errors.Is(err, lcd.ErrNotFound))
			assert.Equal(t, hits.Load(), int32(1))
		})
	}
}

func TestAPIErrorIsReturnedAsIs(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":3,"message":"denomID asset01 has already exists"}`))
	}))
	defer srv.Close()

	client, err := lcd.NewWithFailover(srv.URL, nil, fastConfig())
	assert.NoError(t, err)

	err = client.Post(context.Background(), "/cosmos/tx/v1beta1/simulate", map[string]string{"tx_bytes": ""}, nil)
	var apiErr *lcd.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, apiErr.Code, 3)
	assert.Equal(t, apiErr.StatusCode, http.StatusBadRequest)
	assert.Equal(t, hits.Load(), int32(1))
}

func TestTransientErrorsAreRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := lcd.NewWithFailover(srv.URL, nil, fastConfig())
	assert.NoError(t, err)

	assert.NoError(t, client.Get(context.Background(), "/flaky", nil))
	assert.Equal(t, hits.Load(), int32(3))
}

func TestFailoverToBackup(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer primary.Close()

	backup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer backup.Close()

	client, err := lcd.NewWithFailover(primary.URL, []string{backup.URL}, fastConfig())
	assert.NoError(t, err)
	defer client.Close()

	var out struct {
		OK bool `json:"ok"`
	}
	assert.NoError(t, client.Get(context.Background(), "/status", &out))
	assert.True(t, out.OK)
	assert.Equal(t, client.Endpoint(), backup.URL)
}

func TestPostOnceSendsASingleRequest(t *testing.T) {
	var primaryHits, backupHits atomic.Int32
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryHits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer primary.Close()

	backup := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupHits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer backup.Close()

	client, err := lcd.NewWithFailover(primary.URL, []string{backup.URL}, fastConfig())
	assert.NoError(t, err)
	defer client.Close()

	err = client.PostOnce(context.Background(), "/cosmos/tx/v1beta1/txs", map[string]string{"tx_bytes": ""}, nil)
	assert.Error(t, err)
	assert.Equal(t, primaryHits.Load(), int32(1))
	assert.Equal(t, backupHits.Load(), int32(0))
	assert.Equal(t, client.Endpoint(), primary.URL)
}

func TestInvalidPrimaryURL(t *testing.T) {
	_, err := lcd.New("ftp://example.com")
	assert.Error(t, err)

	_, err = lcd.New("not a url")
	assert.Error(t, err)
}
