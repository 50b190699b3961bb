package database

import (
	"context"
	"testing"

	"holabox/internal/models"
	"holabox/internal/quota"

	"github.com/stretchr/testify/require"
)

func createTestFile(t *testing.T, params CreateFileParams) *models.File {
	file, err := testStore.CreateFile(context.Background(), params)
	require.NoError(t, err)
	require.NotNil(t, file)
	return file
}

func uploadTestFile(t *testing.T, userID int64, id string, size int64) *models.File {
	ctx := context.Background()

	var file *models.File
	err := testStore.ExecTx(ctx, func(q *Queries) error {
		ok, err := q.ReserveStorage(ctx, userID, size)
		require.NoError(t, err)
		require.True(t, ok)

		file, err = q.CreateFile(ctx, CreateFileParams{
			ID:               id,
			Filename:         id + ".bin",
			OriginalFilename: "original_" + id + ".bin",
			FilePath:         "keys/" + id,
			FileSize:         size,
			UserID:           userID,
		})
		return err
	})
	require.NoError(t, err)
	return file
}

func TestCreateFileInMissingFolder(t *testing.T) {
	userID := createTestUser(t, "file_create_user")

	missing := "fld_missing_for_file"
	_, err := testStore.CreateFile(context.Background(), CreateFileParams{
		ID:               "fil_orphan_000000000",
		Filename:         "fil_orphan.bin",
		OriginalFilename: "orphan.bin",
		FilePath:         "keys/orphan",
		FileSize:         10,
		FolderID:         &missing,
		UserID:           userID,
	})
	require.ErrorIs(t, err, ErrFolderNotFound)
}

func TestSoftDeleteReleasesLedger(t *testing.T) {
	userID := createTestUser(t, "file_trash_user")
	ctx := context.Background()

	file := uploadTestFile(t, userID, "fil_trash_0000000000", 1000)

	user, err := testStore.GetUserByID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(1000), user.StorageUsed)

	// Skasowanie i zwolnienie miejsca w jednej transakcji
	err = testStore.ExecTx(ctx, func(q *Queries) error {
		trashed, err := q.MarkFileDeleted(ctx, file.ID, userID)
		require.NoError(t, err)
		require.NotNil(t, trashed)
		require.True(t, trashed.IsDeleted)
		require.NotNil(t, trashed.DeletedAt)

		return q.ReleaseStorage(ctx, userID, trashed.FileSize)
	})
	require.NoError(t, err)

	user, err = testStore.GetUserByID(ctx, userID)
	require.NoError(t, err)
	require.Zero(t, user.StorageUsed)

	// Powtórne kasowanie nie trafia już w żaden wiersz
	again, err := testStore.MarkFileDeleted(ctx, file.ID, userID)
	require.NoError(t, err)
	require.Nil(t, again)
}

func TestRestoreFile(t *testing.T) {
	userID := createTestUser(t, "file_restore_user")
	ctx := context.Background()

	file := uploadTestFile(t, userID, "fil_restore_00000000", 2000)

	err := testStore.ExecTx(ctx, func(q *Queries) error {
		trashed, err := q.MarkFileDeleted(ctx, file.ID, userID)
		require.NoError(t, err)
		require.NotNil(t, trashed)
		return q.ReleaseStorage(ctx, userID, trashed.FileSize)
	})
	require.NoError(t, err)

	err = testStore.ExecTx(ctx, func(q *Queries) error {
		deleted, err := q.GetDeletedFile(ctx, file.ID, userID)
		require.NoError(t, err)
		require.NotNil(t, deleted)

		ok, err := q.ReserveStorage(ctx, userID, deleted.FileSize)
		require.NoError(t, err)
		require.True(t, ok)

		success, err := q.MarkFileRestored(ctx, file.ID, userID)
		require.NoError(t, err)
		require.True(t, success)
		return nil
	})
	require.NoError(t, err)

	restored, err := testStore.GetFileByID(ctx, file.ID, userID)
	require.NoError(t, err)
	require.False(t, restored.IsDeleted)
	require.Nil(t, restored.DeletedAt)

	user, err := testStore.GetUserByID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(2000), user.StorageUsed)
}

func TestRestoreFileQuotaExceededLeavesNothingChanged(t *testing.T) {
	userID := createTestUser(t, "file_restore_full")
	ctx := context.Background()

	file := uploadTestFile(t, userID, "fil_restore_full_000", 5<<30)

	err := testStore.ExecTx(ctx, func(q *Queries) error {
		trashed, err := q.MarkFileDeleted(ctx, file.ID, userID)
		require.NoError(t, err)
		require.NotNil(t, trashed)
		return q.ReleaseStorage(ctx, userID, trashed.FileSize)
	})
	require.NoError(t, err)

	// Zapełniamy konto tak, że przywrócony plik już się nie zmieści
	ok, err := testStore.ReserveStorage(ctx, userID, quota.FreeLimitBytes-(1<<30))
	require.NoError(t, err)
	require.True(t, ok)

	txErr := testStore.ExecTx(ctx, func(q *Queries) error {
		deleted, err := q.GetDeletedFile(ctx, file.ID, userID)
		require.NoError(t, err)
		require.NotNil(t, deleted)

		ok, err := q.ReserveStorage(ctx, userID, deleted.FileSize)
		require.NoError(t, err)
		if !ok {
			return ErrQuotaExceeded
		}

		_, err = q.MarkFileRestored(ctx, file.ID, userID)
		return err
	})
	require.ErrorIs(t, txErr, ErrQuotaExceeded)

	// Ani flaga, ani licznik nie mogły się zmienić
	stillDeleted, err := testStore.GetDeletedFile(ctx, file.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, stillDeleted)
	require.True(t, stillDeleted.IsDeleted)

	user, err := testStore.GetUserByID(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, quota.FreeLimitBytes-(1<<30), user.StorageUsed)
}

func TestListFiles(t *testing.T) {
	userID := createTestUser(t, "file_list_user")
	ctx := context.Background()

	folder := createTestFolder(t, CreateFolderParams{ID: "fld_for_file_list_00", Name: "Box", UserID: userID})

	loose := uploadTestFile(t, userID, "fil_list_loose_00000", 10)
	inFolder := createTestFile(t, CreateFileParams{
		ID:               "fil_list_infolder_00",
		Filename:         "fil_list_infolder.bin",
		OriginalFilename: "infolder.bin",
		FilePath:         "keys/infolder",
		FileSize:         10,
		FolderID:         &folder.ID,
		UserID:           userID,
	})

	topLevel, err := testStore.ListFiles(ctx, userID, nil, false, 100, 0)
	require.NoError(t, err)
	require.Len(t, topLevel, 1)
	require.Equal(t, loose.ID, topLevel[0].ID)

	inside, err := testStore.ListFiles(ctx, userID, &folder.ID, false, 100, 0)
	require.NoError(t, err)
	require.Len(t, inside, 1)
	require.Equal(t, inFolder.ID, inside[0].ID)

	// Kosz pojawia się dopiero z include_deleted
	_, err = testStore.MarkFileDeleted(ctx, loose.ID, userID)
	require.NoError(t, err)

	topLevel, err = testStore.ListFiles(ctx, userID, nil, false, 100, 0)
	require.NoError(t, err)
	require.Len(t, topLevel, 0)

	withDeleted, err := testStore.ListFiles(ctx, userID, nil, true, 100, 0)
	require.NoError(t, err)
	require.Len(t, withDeleted, 1)
}

func TestMoveFile(t *testing.T) {
	userID := createTestUser(t, "file_move_user")
	ctx := context.Background()

	folder := createTestFolder(t, CreateFolderParams{ID: "fld_move_target_0000", Name: "Target", UserID: userID})
	file := uploadTestFile(t, userID, "fil_move_00000000000", 10)

	success, err := testStore.MoveFile(ctx, file.ID, userID, &folder.ID)
	require.NoError(t, err)
	require.True(t, success)

	moved, err := testStore.GetFileByID(ctx, file.ID, userID)
	require.NoError(t, err)
	require.Equal(t, folder.ID, *moved.FolderID)

	missing := "fld_move_missing_000"
	_, err = testStore.MoveFile(ctx, file.ID, userID, &missing)
	require.ErrorIs(t, err, ErrFolderNotFound)

	// Powrót na najwyższy poziom
	success, err = testStore.MoveFile(ctx, file.ID, userID, nil)
	require.NoError(t, err)
	require.True(t, success)
}

func TestFileCountersAreIndependent(t *testing.T) {
	userID := createTestUser(t, "file_counter_user")
	ctx := context.Background()

	file := uploadTestFile(t, userID, "fil_counters_0000000", 10)

	require.NoError(t, testStore.IncrementFileViewCount(ctx, file.ID))
	require.NoError(t, testStore.IncrementFileViewCount(ctx, file.ID))
	require.NoError(t, testStore.IncrementFileDownloadCount(ctx, file.ID))

	counted, err := testStore.GetFileByID(ctx, file.ID, userID)
	require.NoError(t, err)
	require.Equal(t, 2, counted.ViewCount)
	require.Equal(t, 1, counted.DownloadCount)
}
