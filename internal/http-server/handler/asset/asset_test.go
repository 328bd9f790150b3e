package asset

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog-media/internal/domain"
	"catalog-media/internal/http-server/handler/asset/dto"
	"catalog-media/internal/usecase/ingest"

	"github.com/go-chi/chi/v5"
	"github.com/wb-go/wbf/zlog"
)

type stubUsecase struct {
	ingestResult *ingest.Result
	ingestErr    error
	removeErr    error
	listRefs     []ingest.AssetRef
	listErr      error

	gotKind    domain.ResourceKind
	gotOwnerID int64
	gotFiles   int
}

func (s *stubUsecase) Ingest(ctx context.Context, kind domain.ResourceKind, ownerID int64, files []domain.IncomingFile) (*ingest.Result, error) {
	s.gotKind = kind
	s.gotOwnerID = ownerID
	s.gotFiles = len(files)
	return s.ingestResult, s.ingestErr
}

func (s *stubUsecase) RemoveAsset(ctx context.Context, assetID string) error {
	return s.removeErr
}

func (s *stubUsecase) ListAssets(ctx context.Context, kind domain.ResourceKind, ownerID int64) ([]ingest.AssetRef, error) {
	return s.listRefs, s.listErr
}

func newTestServer(u *stubUsecase) *httptest.Server {
	zlog.Init()
	h := NewAssetHandler(u, &zlog.Logger, domain.DefaultMaxFileSize, 10)

	r := chi.NewRouter()
	r.Post("/api/{kind}/{ownerID}/images", h.UploadAssets)
	r.Get("/api/{kind}/{ownerID}/images", h.ListAssets)
	r.Delete("/api/assets/{id}", h.DeleteAsset)
	return httptest.NewServer(r)
}

func multipartBody(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	for _, name := range names {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte("fake image bytes")); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return body, mw.FormDataContentType()
}

func decodeEnvelope(t *testing.T, resp *http.Response) dto.Envelope {
	t.Helper()

	var env dto.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return env
}

func TestUploadAssetsSuccess(t *testing.T) {
	u := &stubUsecase{ingestResult: &ingest.Result{
		Accepted: []ingest.AssetRef{
			{ID: "id-1", URL: "/uploads/products/product_7_0_1_ab.jpg", OriginalName: "a.png"},
		},
	}}
	srv := newTestServer(u)
	defer srv.Close()

	body, ct := multipartBody(t, "a.png")
	resp, err := http.Post(srv.URL+"/api/product/7/images", ct, body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, resp)
	if !env.Success {
		t.Fatal("expected success envelope")
	}
	if env.Message != "All files uploaded" {
		t.Fatalf("unexpected message %q", env.Message)
	}
	if u.gotKind != domain.KindProduct || u.gotOwnerID != 7 || u.gotFiles != 1 {
		t.Fatalf("usecase got kind=%s owner=%d files=%d", u.gotKind, u.gotOwnerID, u.gotFiles)
	}
}

func TestUploadAssetsPartialRejection(t *testing.T) {
	u := &stubUsecase{ingestResult: &ingest.Result{
		Accepted: []ingest.AssetRef{{ID: "id-1", URL: "/u/a.jpg", OriginalName: "a.png"}},
		Errors:   []string{"b.txt: unsupported file type"},
	}}
	srv := newTestServer(u)
	defer srv.Close()

	body, ct := multipartBody(t, "a.png", "b.txt")
	resp, err := http.Post(srv.URL+"/api/product/7/images", ct, body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for a partial batch, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, resp)
	if !env.Success {
		t.Fatal("a batch with any accepted file is a success")
	}
	if env.Message != "Some files were rejected" {
		t.Fatalf("unexpected message %q", env.Message)
	}
}

func TestUploadAssetsOwnerNotFound(t *testing.T) {
	u := &stubUsecase{ingestErr: ingest.ErrOwnerNotFound}
	srv := newTestServer(u)
	defer srv.Close()

	body, ct := multipartBody(t, "a.png")
	resp, err := http.Post(srv.URL+"/api/brand/99/images", ct, body)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if env := decodeEnvelope(t, resp); env.Success {
		t.Fatal("expected failure envelope")
	}
}

func TestUploadAssetsUnknownKind(t *testing.T) {
	srv := newTestServer(&stubUsecase{})
	defer srv.Close()

	body, ct := multipartBody(t, "a.png")
	resp, err := http.Post(srv.URL+"/api/warehouse/7/images", ct, body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUploadAssetsRequiresFiles(t *testing.T) {
	srv := newTestServer(&stubUsecase{})
	defer srv.Close()

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	mw.Close()

	resp, err := http.Post(srv.URL+"/api/product/7/images", mw.FormDataContentType(), body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for an empty form, got %d", resp.StatusCode)
	}
}

func TestDeleteAssetNotFound(t *testing.T) {
	u := &stubUsecase{removeErr: ingest.ErrAssetNotFound}
	srv := newTestServer(u)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodDelete,
		srv.URL+"/api/assets/2f1b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestDeleteAssetRejectsBadID(t *testing.T) {
	srv := newTestServer(&stubUsecase{})
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/assets/not-a-uuid", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestDeleteAssetSuccess(t *testing.T) {
	srv := newTestServer(&stubUsecase{})
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodDelete,
		srv.URL+"/api/assets/2f1b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if env := decodeEnvelope(t, resp); !env.Success {
		t.Fatal("expected success envelope")
	}
}

func TestListAssets(t *testing.T) {
	u := &stubUsecase{listRefs: []ingest.AssetRef{
		{ID: "id-1", URL: "/uploads/banners/banner_3_0_1_cd.jpg", OriginalName: "hero.png"},
	}}
	srv := newTestServer(u)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/banner/3/images")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	env := decodeEnvelope(t, resp)
	raw, err := json.Marshal(env.Data)
	if err != nil {
		t.Fatal(err)
	}
	var data dto.ListData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Images) != 1 || data.Images[0].OriginalName != "hero.png" {
		t.Fatalf("unexpected list payload %+v", data)
	}
}
