package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"holabox/internal/models"
	"holabox/internal/quota"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newStorageRouter() chi.Router {
	router := chi.NewRouter()
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/shares/{shareToken}/access", testServer.AccessShareHandler)
		r.Get("/shares/{shareToken}/download", testServer.DownloadShareHandler)

		r.Group(func(r chi.Router) {
			r.Use(testServer.AuthMiddleware)
			r.Post("/storage/upload", testServer.UploadFileHandler)
			r.Delete("/storage/files/{fileId}", testServer.DeleteFileHandler)
			r.Post("/storage/files/{fileId}/restore", testServer.RestoreFileHandler)
			r.Post("/shares", testServer.CreateShareHandler)
			r.Delete("/shares/{shareId}", testServer.RevokeShareHandler)
		})
	})
	return router
}

func uploadViaAPI(t *testing.T, router chi.Router, content []byte, filename string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/v1/storage/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testUserToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func getStorageUsed(t *testing.T) int64 {
	user, err := testServer.store.GetUserByID(context.Background(), testUserClaims.UserID)
	require.NoError(t, err)
	return user.StorageUsed
}

func TestAPI_UploadFile_Success(t *testing.T) {
	router := newStorageRouter()
	content := []byte("zawartosc pliku testowego")
	usedBefore := getStorageUsed(t)

	rr := uploadViaAPI(t, router, content, "raport.txt")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created models.File
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, "raport.txt", created.OriginalFilename)
	require.Equal(t, int64(len(content)), created.FileSize)
	require.False(t, created.IsDeleted)

	require.Equal(t, usedBefore+int64(len(content)), getStorageUsed(t))

	// Bajty naprawdę wylądowały w magazynie
	stored, err := testServer.store.GetFileByID(context.Background(), created.ID, testUserClaims.UserID)
	require.NoError(t, err)
	stream, err := testServer.storage.Open(stored.FilePath)
	require.NoError(t, err)
	defer stream.Close()
	got, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestAPI_UploadFile_QuotaExceeded(t *testing.T) {
	router := newStorageRouter()
	ctx := context.Background()

	usedBefore := getStorageUsed(t)
	require.NoError(t, testServer.store.SetStorageUsed(ctx, testUserClaims.UserID, quota.FreeLimitBytes))
	defer func() {
		require.NoError(t, testServer.store.SetStorageUsed(ctx, testUserClaims.UserID, usedBefore))
	}()

	var filesBefore int
	err := testServer.store.GetPool().QueryRow(ctx,
		"SELECT count(*) FROM files WHERE user_id = $1", testUserClaims.UserID).Scan(&filesBefore)
	require.NoError(t, err)

	rr := uploadViaAPI(t, router, []byte("nie zmiesci sie"), "za_duzy.txt")
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	// Odrzucony upload nie zostawia śladu ani w bazie, ani w liczniku
	var filesAfter int
	err = testServer.store.GetPool().QueryRow(ctx,
		"SELECT count(*) FROM files WHERE user_id = $1", testUserClaims.UserID).Scan(&filesAfter)
	require.NoError(t, err)
	require.Equal(t, filesBefore, filesAfter)
	require.Equal(t, quota.FreeLimitBytes, getStorageUsed(t))
}

func TestAPI_DeleteAndRestoreFile(t *testing.T) {
	router := newStorageRouter()
	content := []byte("plik do kosza i z powrotem")

	rr := uploadViaAPI(t, router, content, "kosz.txt")
	require.Equal(t, http.StatusCreated, rr.Code)
	var created models.File
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	usedAfterUpload := getStorageUsed(t)

	req := httptest.NewRequest("DELETE", fmt.Sprintf("/api/v1/storage/files/%s", created.ID), nil)
	req.Header.Set("Authorization", "Bearer "+testUserToken)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)

	require.Equal(t, usedAfterUpload-created.FileSize, getStorageUsed(t))

	trashed, err := testServer.store.GetDeletedFile(context.Background(), created.ID, testUserClaims.UserID)
	require.NoError(t, err)
	require.NotNil(t, trashed)

	// Drugie kasowanie tego samego pliku to 404
	req = httptest.NewRequest("DELETE", fmt.Sprintf("/api/v1/storage/files/%s", created.ID), nil)
	req.Header.Set("Authorization", "Bearer "+testUserToken)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)

	req = httptest.NewRequest("POST", fmt.Sprintf("/api/v1/storage/files/%s/restore", created.ID), nil)
	req.Header.Set("Authorization", "Bearer "+testUserToken)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	require.Equal(t, usedAfterUpload, getStorageUsed(t))

	restored, err := testServer.store.GetFileByID(context.Background(), created.ID, testUserClaims.UserID)
	require.NoError(t, err)
	require.False(t, restored.IsDeleted)
}

func TestAPI_RestoreFile_QuotaExceeded(t *testing.T) {
	router := newStorageRouter()
	ctx := context.Background()

	rr := uploadViaAPI(t, router, []byte("wroci dopiero po zwolnieniu miejsca"), "pechowy.txt")
	require.Equal(t, http.StatusCreated, rr.Code)
	var created models.File
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	req := httptest.NewRequest("DELETE", fmt.Sprintf("/api/v1/storage/files/%s", created.ID), nil)
	req.Header.Set("Authorization", "Bearer "+testUserToken)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)

	usedBefore := getStorageUsed(t)
	require.NoError(t, testServer.store.SetStorageUsed(ctx, testUserClaims.UserID, quota.FreeLimitBytes))
	defer func() {
		require.NoError(t, testServer.store.SetStorageUsed(ctx, testUserClaims.UserID, usedBefore))
	}()

	req = httptest.NewRequest("POST", fmt.Sprintf("/api/v1/storage/files/%s/restore", created.ID), nil)
	req.Header.Set("Authorization", "Bearer "+testUserToken)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	// Plik dalej w koszu, licznik nietknięty
	stillTrashed, err := testServer.store.GetDeletedFile(ctx, created.ID, testUserClaims.UserID)
	require.NoError(t, err)
	require.NotNil(t, stillTrashed)
	require.Equal(t, quota.FreeLimitBytes, getStorageUsed(t))
}

func TestAPI_ShareLifecycle(t *testing.T) {
	router := newStorageRouter()
	content := []byte("dane udostepnione linkiem")

	rr := uploadViaAPI(t, router, content, "udostepniony.txt")
	require.Equal(t, http.StatusCreated, rr.Code)
	var created models.File
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	payload := CreateShareRequest{FileID: created.ID, Password: "sekret", ExpiryHours: 24}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/shares", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testUserToken)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var share models.Share
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &share))
	require.NotEmpty(t, share.ShareToken)

	// Bez hasła ani z błędnym hasłem dostępu nie ma
	req = httptest.NewRequest("GET", fmt.Sprintf("/api/v1/shares/%s/access", share.ShareToken), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest("GET", fmt.Sprintf("/api/v1/shares/%s/access?password=zle", share.ShareToken), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest("GET", fmt.Sprintf("/api/v1/shares/%s/access?password=sekret", share.ShareToken), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var accessed SharedFileResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &accessed))
	require.Equal(t, created.ID, accessed.FileID)
	require.Equal(t, "udostepniony.txt", accessed.Filename)

	req = httptest.NewRequest("GET", fmt.Sprintf("/api/v1/shares/%s/download?password=sekret", share.ShareToken), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, content, rr.Body.Bytes())

	// Podgląd i pobranie liczone osobno
	refreshed, err := testServer.store.GetShareByToken(context.Background(), share.ShareToken)
	require.NoError(t, err)
	require.Equal(t, 1, refreshed.ViewCount)
	require.Equal(t, 1, refreshed.DownloadCount)

	req = httptest.NewRequest("DELETE", fmt.Sprintf("/api/v1/shares/%d", share.ID), nil)
	req.Header.Set("Authorization", "Bearer "+testUserToken)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)

	// Unieważniony link zachowuje się jak nieistniejący
	req = httptest.NewRequest("GET", fmt.Sprintf("/api/v1/shares/%s/access?password=sekret", share.ShareToken), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPI_CreateFolder(t *testing.T) {
	payload := CreateFolderRequest{Name: "Nowy_Folder_API"}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/storage/folders", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	req = req.WithContext(context.WithValue(req.Context(), userContextKey, testUserClaims))
	http.HandlerFunc(testServer.CreateFolderHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var created models.Folder
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	require.Equal(t, "Nowy_Folder_API", created.Name)
	require.Equal(t, "/Nowy_Folder_API", created.Path)
}

func TestAPI_CreateFolder_EmptyName(t *testing.T) {
	payload := CreateFolderRequest{Name: "  "}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", "/api/v1/storage/folders", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	req = req.WithContext(context.WithValue(req.Context(), userContextKey, testUserClaims))
	http.HandlerFunc(testServer.CreateFolderHandler).ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}
