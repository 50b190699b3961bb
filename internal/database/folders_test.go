package database

import (
	"context"
	"testing"

	"holabox/internal/models"

	"github.com/stretchr/testify/require"
)

func createTestFolder(t *testing.T, params CreateFolderParams) *models.Folder {
	folder, err := testStore.CreateFolder(context.Background(), params)
	require.NoError(t, err)
	require.NotNil(t, folder)
	return folder
}

func TestCreateFolderPathDerivation(t *testing.T) {
	userID := createTestUser(t, "folder_path_user")

	root := createTestFolder(t, CreateFolderParams{ID: "fld_path_root_000000", Name: "Documents", UserID: userID})
	require.Equal(t, "/Documents", root.Path)
	require.Nil(t, root.ParentID)

	child := createTestFolder(t, CreateFolderParams{ID: "fld_path_child_00000", Name: "Invoices", ParentID: &root.ID, UserID: userID})
	require.Equal(t, "/Documents/Invoices", child.Path)
	require.Equal(t, root.ID, *child.ParentID)

	grandchild := createTestFolder(t, CreateFolderParams{ID: "fld_path_grand_00000", Name: "2026", ParentID: &child.ID, UserID: userID})
	require.Equal(t, "/Documents/Invoices/2026", grandchild.Path)
}

func TestCreateFolderMissingParent(t *testing.T) {
	userID := createTestUser(t, "folder_parent_user")
	otherID := createTestUser(t, "folder_parent_other")

	missing := "fld_does_not_exist00"
	_, err := testStore.CreateFolder(context.Background(), CreateFolderParams{
		ID: "fld_orphan_000000000", Name: "Orphan", ParentID: &missing, UserID: userID,
	})
	require.ErrorIs(t, err, ErrFolderNotFound)

	// Rodzic należący do innego użytkownika też jest "nieznaleziony"
	foreign := createTestFolder(t, CreateFolderParams{ID: "fld_foreign_00000000", Name: "Foreign", UserID: otherID})
	_, err = testStore.CreateFolder(context.Background(), CreateFolderParams{
		ID: "fld_trespass_0000000", Name: "Trespass", ParentID: &foreign.ID, UserID: userID,
	})
	require.ErrorIs(t, err, ErrFolderNotFound)
}

func TestListFolders(t *testing.T) {
	userID := createTestUser(t, "folder_list_user")
	ctx := context.Background()

	top1 := createTestFolder(t, CreateFolderParams{ID: "fld_list_top1_000000", Name: "Alpha", UserID: userID})
	createTestFolder(t, CreateFolderParams{ID: "fld_list_top2_000000", Name: "Beta", UserID: userID})
	nested := createTestFolder(t, CreateFolderParams{ID: "fld_list_nested_0000", Name: "Nested", ParentID: &top1.ID, UserID: userID})

	topLevel, err := testStore.ListFolders(ctx, userID, nil, false, 100, 0)
	require.NoError(t, err)
	require.Len(t, topLevel, 2)

	inside, err := testStore.ListFolders(ctx, userID, &top1.ID, false, 100, 0)
	require.NoError(t, err)
	require.Len(t, inside, 1)
	require.Equal(t, nested.ID, inside[0].ID)

	// Cudze foldery są niewidoczne
	otherID := createTestUser(t, "folder_list_other")
	empty, err := testStore.ListFolders(ctx, otherID, nil, false, 100, 0)
	require.NoError(t, err)
	require.Len(t, empty, 0)
}

func TestRenameFolderKeepsPath(t *testing.T) {
	userID := createTestUser(t, "folder_rename_user")
	ctx := context.Background()

	folder := createTestFolder(t, CreateFolderParams{ID: "fld_rename_000000000", Name: "OldName", UserID: userID})

	success, err := testStore.RenameFolder(ctx, folder.ID, userID, "NewName")
	require.NoError(t, err)
	require.True(t, success)

	renamed, err := testStore.GetFolderByID(ctx, folder.ID, userID)
	require.NoError(t, err)
	require.Equal(t, "NewName", renamed.Name)
	// Ścieżka pozostaje zamrożona z chwili utworzenia
	require.Equal(t, "/OldName", renamed.Path)

	success, err = testStore.RenameFolder(ctx, "fld_no_such_folder00", userID, "Whatever")
	require.NoError(t, err)
	require.False(t, success)
}
