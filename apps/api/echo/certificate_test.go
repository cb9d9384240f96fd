package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-certs/core/certificate"
	"github.com/trezcool/masomo-certs/tests"
)

func Test_certificateAPI_generate(t *testing.T) {
	e := setup(t, 0)

	sample := testutil.SampleFields("C100")
	body := marshalObj(t, sample)

	t.Run("created", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/certificates", body)
		e.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var res generateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "C100", res.ID)
		assert.True(t, strings.HasPrefix(res.Image, "data:image/png;base64,"))

		got, ok, err := e.svc.Fetch(context.Background(), "C100")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, sample, got.Fields)
		assert.Equal(t, res.Image, got.Image)
	})

	t.Run("defaults", func(t *testing.T) {
		origNow := certificate.NowFunc
		defer func() { certificate.NowFunc = origNow }()
		certificate.NowFunc = func() time.Time { return time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC) }

		req, rec := newRequest(http.MethodPost, "/v1/certificates", []byte(`{"userName":"Amani","courseName":"Go"}`))
		e.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var res generateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		require.NotEmpty(t, res.ID)

		got, ok, err := e.svc.Fetch(context.Background(), res.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "2024-05-17", got.IssueDate)
		assert.Equal(t, res.ID, got.CertificateID)
	})

	t.Run("verbatim", func(t *testing.T) {
		for _, want := range []certificate.Fields{
			{CertificateID: "empty"},
			{UserName: "  سارة  ", CourseName: " Go\t", IssueDate: "someday", CertificateID: "padded", ShareLink: "not a url "},
		} {
			req, rec := newRequest(http.MethodPost, "/v1/certificates", marshalObj(t, want))
			e.server.ServeHTTP(rec, req)
			require.Equal(t, http.StatusCreated, rec.Code)

			got, ok, err := e.svc.Fetch(context.Background(), want.CertificateID)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, want, got.Fields)
		}
	})

	runHTTPTests(t, e.server, []httpTest{
		{
			name:     "reserved id",
			method:   http.MethodPost,
			path:     "/v1/certificates",
			body:     []byte(`{"userName":"Amani","courseName":"Go","certificateId":"C100_data"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"certificateId": certificate.ErrReservedID.Error()}),
		},
		{
			name:     "bad json",
			method:   http.MethodPost,
			path:     "/v1/certificates",
			body:     []byte(`{"userName":`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "bad id",
			method:   http.MethodPost,
			path:     "/v1/certificates",
			body:     []byte(`{"userName":"Amani","courseName":"Go","certificateId":"a/b"}`),
			wantCode: http.StatusBadRequest,
		},
	})

	// the rejected ID left C100 untouched
	got, ok, err := e.svc.Fetch(context.Background(), "C100")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sample, got.Fields)
}

func Test_certificateAPI_generate_quota(t *testing.T) {
	e := setup(t, 1000)

	req, rec := newRequest(http.MethodPost, "/v1/certificates", marshalObj(t, testutil.SampleFields("C1")))
	e.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusInsufficientStorage,
		wantData: marshalObj(t, httpErr{Error: "local storage quota exceeded"}),
	}, rec)
	keys, err := e.store.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func Test_certificateAPI_fetch(t *testing.T) {
	e := setup(t, 0)
	ctx := context.Background()
	_, err := e.svc.Generate(ctx, testutil.SampleFields("C100"))
	require.NoError(t, err)

	runHTTPTests(t, e.server, []httpTest{
		{
			name:     "not found",
			method:   http.MethodGet,
			path:     "/v1/certificates/nope",
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "certificate not found in local storage"}),
		},
	})

	req, rec := newRequest(http.MethodGet, "/v1/certificates/C100")
	e.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got certificate.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "C100", got.ID)
	assert.Equal(t, testutil.SampleFields("C100"), got.Fields)
	assert.True(t, strings.HasPrefix(got.Image, "data:image/png;base64,"))
}

func Test_certificateAPI_list(t *testing.T) {
	e := setup(t, 0)
	ctx := context.Background()

	runHTTPTests(t, e.server, []httpTest{
		{name: "empty", method: http.MethodGet, path: "/v1/certificates", wantCode: http.StatusOK, wantData: []byte(`[]`)},
	})

	for _, id := range []string{"a", "b"} {
		_, err := e.svc.Generate(ctx, testutil.SampleFields(id))
		require.NoError(t, err)
	}
	require.NoError(t, e.store.Set(ctx, certificate.Item{Key: "theme", Value: "dark"}))

	req, rec := newRequest(http.MethodGet, "/v1/certificates")
	e.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got []certificate.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	for _, r := range got {
		assert.Empty(t, r.Image)
	}
}

func Test_certificateAPI_image(t *testing.T) {
	e := setup(t, 0)
	_, err := e.svc.Generate(context.Background(), testutil.SampleFields("C100"))
	require.NoError(t, err)

	runHTTPTests(t, e.server, []httpTest{
		{name: "not found", method: http.MethodGet, path: "/v1/certificates/nope/image", wantCode: http.StatusNotFound},
	})

	req, rec := newRequest(http.MethodGet, "/v1/certificates/C100/image")
	e.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func Test_certificateAPI_upload(t *testing.T) {
	e := setup(t, 0)
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		_, err := e.svc.Generate(ctx, testutil.SampleFields(id))
		require.NoError(t, err)
	}
	e.upstream.FailWith("b", http.StatusInternalServerError)

	runHTTPTests(t, e.server, []httpTest{
		{
			name:     "not found",
			method:   http.MethodPost,
			path:     "/v1/certificates/nope/upload",
			wantCode: http.StatusNotFound,
			wantData: marshalObj(t, httpErr{Error: "certificate not found in local storage"}),
		},
		{
			name:     "success",
			method:   http.MethodPost,
			path:     "/v1/certificates/a/upload",
			wantCode: http.StatusOK,
			wantData: []byte(`{"success":true,"url":"https://cdn.example.com/certificates/a.png"}`),
		},
		{
			name:     "rejected",
			method:   http.MethodPost,
			path:     "/v1/certificates/b/upload",
			wantCode: http.StatusBadGateway,
			wantData: marshalObj(t, httpErr{Error: "failed to upload certificate: status 500"}),
		},
	})

	_, ok, err := e.svc.Fetch(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = e.svc.Fetch(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func Test_certificateAPI_uploadAll(t *testing.T) {
	e := setup(t, 0)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_, err := e.svc.Generate(ctx, testutil.SampleFields(id))
		require.NoError(t, err)
	}
	e.upstream.FailWith("b", http.StatusServiceUnavailable)

	runHTTPTests(t, e.server, []httpTest{
		{name: "bad concurrency", method: http.MethodPost, path: "/v1/certificates/upload?concurrency=lol", wantCode: http.StatusBadRequest},
		{name: "concurrency too high", method: http.MethodPost, path: "/v1/certificates/upload?concurrency=100", wantCode: http.StatusBadRequest},
	})

	req, rec := newRequest(http.MethodPost, "/v1/certificates/upload?concurrency=2")
	e.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var res uploadAllResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, "a", res.Outcomes[0].ID)
	assert.Empty(t, res.Outcomes[0].Error)
	assert.Equal(t, "b", res.Outcomes[1].ID)
	assert.NotEmpty(t, res.Outcomes[1].Error)
	assert.Equal(t, "c", res.Outcomes[2].ID)

	records, err := e.svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b", records[0].ID)
}

func Test_certificateAPI_document(t *testing.T) {
	e := setup(t, 0)
	_, err := e.svc.Generate(context.Background(), testutil.SampleFields("C100"))
	require.NoError(t, err)

	runHTTPTests(t, e.server, []httpTest{
		{name: "not found", method: http.MethodGet, path: "/v1/certificates/nope/document", wantCode: http.StatusNotFound},
	})

	req, rec := newRequest(http.MethodGet, "/v1/certificates/C100/document")
	e.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="certificate-C100.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func Test_certificateAPI_prune(t *testing.T) {
	e := setup(t, 0)
	ctx := context.Background()

	origNow := certificate.NowFunc
	defer func() { certificate.NowFunc = origNow }()
	certificate.NowFunc = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	_, err := e.svc.Generate(ctx, testutil.SampleFields("old"))
	require.NoError(t, err)
	certificate.NowFunc = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	_, err = e.svc.Generate(ctx, testutil.SampleFields("new"))
	require.NoError(t, err)

	runHTTPTests(t, e.server, []httpTest{
		{name: "missing duration", method: http.MethodDelete, path: "/v1/certificates", wantCode: http.StatusBadRequest},
		{name: "bad duration", method: http.MethodDelete, path: "/v1/certificates?older_than=soon", wantCode: http.StatusBadRequest},
		{
			name:     "removes old",
			method:   http.MethodDelete,
			path:     "/v1/certificates?older_than=720h",
			wantCode: http.StatusOK,
			wantData: []byte(`{"removed":2}`),
		},
	})

	records, err := e.svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].ID)
}
