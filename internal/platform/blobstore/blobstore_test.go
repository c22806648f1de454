package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestUpload_StoresImage(t *testing.T) {
	store := NewInMemoryStore(0, "https://vetpath.example.com")
	content := []byte("fake-png-bytes")

	meta, err := store.Upload(context.Background(), BlobMetadata{
		FileName:    "lesion.png",
		ContentType: "image/png",
		Caption:     "skin lesion, day 3",
	}, bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	if meta.ID == "" {
		t.Error("expected assigned id")
	}
	if meta.Size != int64(len(content)) {
		t.Errorf("expected size %d, got %d", len(content), meta.Size)
	}
	if meta.Hash == "" {
		t.Error("expected content hash")
	}
	if meta.URL != "https://vetpath.example.com/files/"+meta.ID {
		t.Errorf("unexpected URL: %s", meta.URL)
	}
	if meta.Caption != "skin lesion, day 3" {
		t.Errorf("unexpected caption: %s", meta.Caption)
	}
}

func TestUpload_RejectsNonImage(t *testing.T) {
	store := NewInMemoryStore(0, "")

	_, err := store.Upload(context.Background(), BlobMetadata{
		FileName:    "report.pdf",
		ContentType: "application/pdf",
	}, strings.NewReader("pdf"))
	if !errors.Is(err, ErrInvalidContentType) {
		t.Fatalf("expected ErrInvalidContentType, got %v", err)
	}
}

func TestUpload_RejectsMissingFileName(t *testing.T) {
	store := NewInMemoryStore(0, "")

	_, err := store.Upload(context.Background(), BlobMetadata{
		ContentType: "image/png",
	}, strings.NewReader("x"))
	if !errors.Is(err, ErrMissingFileName) {
		t.Fatalf("expected ErrMissingFileName, got %v", err)
	}
}

func TestUpload_EnforcesSizeCeiling(t *testing.T) {
	store := NewInMemoryStore(64, "")
	big := bytes.Repeat([]byte("x"), 65)

	_, err := store.Upload(context.Background(), BlobMetadata{
		FileName:    "big.png",
		ContentType: "image/png",
	}, bytes.NewReader(big))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestDownload_RoundTrip(t *testing.T) {
	store := NewInMemoryStore(0, "")
	content := []byte("image-bytes")

	meta, err := store.Upload(context.Background(), BlobMetadata{
		FileName:    "hoof.jpg",
		ContentType: "image/jpeg",
	}, bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	rc, got, err := store.Download(context.Background(), meta.ID)
	if err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if !bytes.Equal(data, content) {
		t.Error("downloaded content does not match upload")
	}
	if got.FileName != "hoof.jpg" {
		t.Errorf("unexpected file name: %s", got.FileName)
	}
}

func TestDownload_NotFound(t *testing.T) {
	store := NewInMemoryStore(0, "")

	_, _, err := store.Download(context.Background(), "missing")
	if !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := NewInMemoryStore(0, "")
	meta, err := store.Upload(context.Background(), BlobMetadata{
		FileName:    "x.png",
		ContentType: "image/png",
	}, strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	if err := store.Delete(context.Background(), meta.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := store.Delete(context.Background(), meta.ID); !errors.Is(err, ErrBlobNotFound) {
		t.Fatalf("expected ErrBlobNotFound on second delete, got %v", err)
	}
}

func multipartUpload(t *testing.T, fieldName, fileName, contentType string, content []byte, caption string) (*http.Request, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="`+fieldName+`"; filename="`+fileName+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write(content)

	if caption != "" {
		w.WriteField("caption", caption)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req, w.FormDataContentType()
}

func TestHandlerUpload(t *testing.T) {
	store := NewInMemoryStore(0, "")
	h := NewHandler(store)
	e := echo.New()

	req, _ := multipartUpload(t, "file", "lesion.png", "image/png", []byte("png-bytes"), "caption text")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.handleUpload(c); err != nil {
		t.Fatalf("handleUpload error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerUpload_WrongType(t *testing.T) {
	store := NewInMemoryStore(0, "")
	h := NewHandler(store)
	e := echo.New()

	req, _ := multipartUpload(t, "file", "doc.txt", "text/plain", []byte("hello"), "")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.handleUpload(c); err != nil {
		t.Fatalf("handleUpload error: %v", err)
	}
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
}

func TestHandlerDownload_NotFound(t *testing.T) {
	store := NewInMemoryStore(0, "")
	h := NewHandler(store)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/files/missing", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if err := h.handleDownload(c); err != nil {
		t.Fatalf("handleDownload error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
