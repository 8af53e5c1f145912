package crewz

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/crewzcontrol/quotesync/pkg/authkey"
	pkgerrors "github.com/crewzcontrol/quotesync/pkg/errors"
	"github.com/crewzcontrol/quotesync/pkg/xmltree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2030, time.January, 5, 9, 7, 0, 0, time.Local)

func newTestClient(t *testing.T, rt roundTripFunc, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithHTTPClient(&http.Client{Transport: rt}),
		WithClock(func() time.Time { return fixedNow }),
		WithClientVersion("2.4.1"),
	}
	client, err := NewClient("http://crewz.test/api/", append(base, opts...)...)
	require.NoError(t, err)
	return client
}

func xmlResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestCallBuildsOrderedAuthenticatedQuery(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return xmlResponse(`<ResultInfo><Result>Success</Result><Selections><Quote><Serial>7</Serial></Quote></Selections></ResultInfo>`), nil
	})

	params := NewParams().SetInt("Serial", 7).Set("BlackoutDate", "01/01/2030,01/02/2030")
	auth := AuthContext{DeviceID: "dev 1", AuthorizationCode: "AC&9", Location: &Location{Latitude: 35.5, Longitude: -97.25}}

	env, err := client.Call(context.Background(), EndpointGetQuote, params, auth)
	require.NoError(t, err)
	require.NotNil(t, captured)

	assert.Equal(t, http.MethodGet, captured.Method)
	assert.Equal(t, "/api/GetQuote.php", captured.URL.Path)

	key, err := authkey.Derive("dev 1", "AC&9", fixedNow)
	require.NoError(t, err)

	names := queryNames(captured.URL.RawQuery)
	assert.Equal(t, []string{"DeviceID", "Date", "Key", "AC", "CrewzControlVersion", "Longitude", "Latitude", "Serial", "BlackoutDate"}, names)

	q := captured.URL.Query()
	assert.Equal(t, "dev 1", q.Get("DeviceID"))
	assert.Equal(t, key.Timestamp, q.Get("Date"))
	assert.Equal(t, key.Hash, q.Get("Key"))
	assert.Equal(t, "AC&9", q.Get("AC"))
	assert.Equal(t, "2.4.1", q.Get("CrewzControlVersion"))
	assert.Equal(t, "-97.25", q.Get("Longitude"))
	assert.Equal(t, "35.5", q.Get("Latitude"))
	assert.Equal(t, "7", q.Get("Serial"))
	assert.Equal(t, "01/01/2030,01/02/2030", q.Get("BlackoutDate"))
	assert.Contains(t, captured.URL.RawQuery, "Date=01%2F05%2F2030-09%3A07")

	serial, ok := xmltree.Int(xmltree.Path(env.Selections, "Quote", "Serial"))
	assert.True(t, ok)
	assert.Equal(t, int64(7), serial)
}

func TestCallWithoutLocationSendsEmptyCoordinates(t *testing.T) {
	var captured *http.Request
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req
		return xmlResponse(`<ResultInfo><Result>Success</Result></ResultInfo>`), nil
	})

	_, err := client.Call(context.Background(), EndpointUpdateQuote, nil, AuthContext{DeviceID: "dev", AuthorizationCode: "AC"})
	require.NoError(t, err)

	q := captured.URL.Query()
	assert.True(t, q.Has("Longitude"))
	assert.Equal(t, "", q.Get("Longitude"))
	assert.Equal(t, "", q.Get("Latitude"))
}

func TestCallRequiresDeviceIdentityBeforeIO(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("no request should be issued")
		return nil, nil
	})

	_, err := client.Call(context.Background(), EndpointGetQuote, nil, AuthContext{AuthorizationCode: "AC"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodePrecondition))
}

func TestCallServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "server message", body: `<ResultInfo><Result>Failure</Result><Message>Quote is locked</Message></ResultInfo>`, message: "Quote is locked"},
		{name: "fallback message", body: `<ResultInfo><Result>Failure</Result></ResultInfo>`, message: pkgerrors.FallbackServiceMessage},
		{name: "missing result", body: `<ResultInfo><Message>odd</Message></ResultInfo>`, message: "odd"},
		{name: "missing envelope", body: `<Other><Result>Success</Result></Other>`, message: pkgerrors.FallbackServiceMessage},
		{name: "case sensitive", body: `<ResultInfo><Result>success</Result></ResultInfo>`, message: pkgerrors.FallbackServiceMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
				return xmlResponse(tt.body), nil
			})
			env, err := client.Call(context.Background(), EndpointGetQuote, nil, AuthContext{DeviceID: "dev", AuthorizationCode: "AC"})
			require.Error(t, err)
			assert.Nil(t, env)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeService), "got %v", err)
			assert.Equal(t, tt.message, pkgerrors.UserMessage(err))
		})
	}
}

func TestCallTransportErrors(t *testing.T) {
	tests := []struct {
		name string
		rt   roundTripFunc
	}{
		{name: "network", rt: func(*http.Request) (*http.Response, error) { return nil, errors.New("connection refused") }},
		{name: "status", rt: func(*http.Request) (*http.Response, error) {
			resp := xmlResponse("oops")
			resp.StatusCode = http.StatusBadGateway
			return resp, nil
		}},
		{name: "malformed xml", rt: func(*http.Request) (*http.Response, error) {
			return xmlResponse(`<ResultInfo><Result>Success</Result>`), nil
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.rt)
			_, err := client.Call(context.Background(), EndpointGetQuote, nil, AuthContext{DeviceID: "dev", AuthorizationCode: "AC"})
			require.Error(t, err)
			assert.True(t, pkgerrors.Is(err, pkgerrors.CodeTransport), "got %v", err)
			assert.NotContains(t, pkgerrors.UserMessage(err), "refused")
		})
	}
}

func TestCallTimesOut(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		<-req.Context().Done()
		return nil, req.Context().Err()
	}, WithTimeout(20*time.Millisecond))

	_, err := client.Call(context.Background(), EndpointGetQuote, nil, AuthContext{DeviceID: "dev", AuthorizationCode: "AC"})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeTransport))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ")
	assert.Error(t, err)
}

func TestParamsEncoding(t *testing.T) {
	p := NewParams().Set("A", "x y").SetList("List", []int64{3, 1, 2}).Set("A", "z")
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, "A=z&List=3%2C1%2C2", p.Encode())

	v, ok := p.Get("List")
	assert.True(t, ok)
	assert.Equal(t, "3,1,2", v)

	var nilParams *Params
	assert.Equal(t, "", nilParams.Encode())
	assert.Zero(t, nilParams.Len())
}

func queryNames(raw string) []string {
	var names []string
	for _, part := range strings.Split(raw, "&") {
		name, _, _ := strings.Cut(part, "=")
		if decoded, err := url.QueryUnescape(name); err == nil {
			names = append(names, decoded)
		}
	}
	return names
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
