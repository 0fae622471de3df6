package service_test

import (
	"errors"
	"mime/multipart"
	"strings"
	"testing"

	"socialnotes/internal/contract"
	"socialnotes/internal/domain/policy"
	"socialnotes/internal/domain/sqlite/repository"
	"socialnotes/internal/service"
	"socialnotes/internal/utils/apierror"

	"github.com/stretchr/testify/require"
)

func newNoteService(t *testing.T, dbName string) (*service.DefaultNoteService, *repository.DefaultUserRepository, *fakeStorage) {
	t.Helper()

	db := openTestDB(t, dbName)
	userRepo := repository.NewUserRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	s3 := newFakeStorage()
	svc := service.NewNoteService(noteRepo, s3, newValidate(t), policy.NewNotePolicy())
	return svc, userRepo, s3
}

func TestNoteService_CreateAndGet(t *testing.T) {
	svc, userRepo, _ := newNoteService(t, "notesvc_create")
	alice := seedUser(t, userRepo, 1, "alice")

	resp, apierr := svc.CreateNote(alice, &contract.CreateNoteRequest{
		Title:   "  Groceries  ",
		Content: "milk, eggs",
		Color:   "#AABBCC",
		Public:  true,
	})
	require.Nil(t, apierr)
	require.NotZero(t, resp.ID)
	require.Equal(t, "Groceries", resp.Title) // leading/trailing spaces dropped
	require.Equal(t, "#AABBCC", resp.Color)
	require.True(t, resp.Public)
	require.Zero(t, resp.Likes)
	require.False(t, resp.Liked)
	require.Empty(t, resp.Images)

	got, apierr := svc.GetNote(alice, resp.ID)
	require.Nil(t, apierr)
	require.Equal(t, resp.ID, got.ID)
	require.Equal(t, "milk, eggs", got.Content)
}

func TestNoteService_CreateValidation(t *testing.T) {
	svc, userRepo, _ := newNoteService(t, "notesvc_validation")
	alice := seedUser(t, userRepo, 1, "alice")

	_, apierr := svc.CreateNote(alice, &contract.CreateNoteRequest{Title: ""})
	require.NotNil(t, apierr)
	require.Equal(t, 400, apierr.Code())

	_, apierr = svc.CreateNote(alice, &contract.CreateNoteRequest{Title: "ok", Color: "red"})
	require.NotNil(t, apierr)
	require.Equal(t, 400, apierr.Code())

	_, apierr = svc.CreateNote(alice, &contract.CreateNoteRequest{Title: strings.Repeat("x", 121)})
	require.NotNil(t, apierr)
	require.Equal(t, 400, apierr.Code())
}

func TestNoteService_Visibility(t *testing.T) {
	svc, userRepo, _ := newNoteService(t, "notesvc_visibility")
	alice := seedUser(t, userRepo, 1, "alice")
	bob := seedUser(t, userRepo, 2, "bob")
	carol := seedUser(t, userRepo, 3, "carol")
	befriend(t, userRepo, alice, bob)

	public, apierr := svc.CreateNote(alice, &contract.CreateNoteRequest{Title: "shared", Public: true})
	require.Nil(t, apierr)
	private, apierr := svc.CreateNote(alice, &contract.CreateNoteRequest{Title: "mine"})
	require.Nil(t, apierr)

	_, apierr = svc.GetNote(bob, public.ID)
	require.Nil(t, apierr)

	// Invisible notes answer 404, never 403
	_, apierr = svc.GetNote(bob, private.ID)
	require.Equal(t, apierror.NotFoundError, apierr)

	_, apierr = svc.GetNote(carol, public.ID)
	require.Equal(t, apierror.NotFoundError, apierr)
}

func TestNoteService_GetOwnNotes(t *testing.T) {
	svc, userRepo, _ := newNoteService(t, "notesvc_own")
	alice := seedUser(t, userRepo, 1, "alice")

	_, apierr := svc.CreateNote(alice, &contract.CreateNoteRequest{Title: "active"})
	require.Nil(t, apierr)
	archived, apierr := svc.CreateNote(alice, &contract.CreateNoteRequest{Title: "archived"})
	require.Nil(t, apierr)
	trashed, apierr := svc.CreateNote(alice, &contract.CreateNoteRequest{Title: "trashed"})
	require.Nil(t, apierr)

	flag := true
	_, apierr = svc.UpdateNote(alice, archived.ID, &contract.UpdateNoteRequest{Archived: &flag})
	require.Nil(t, apierr)
	require.Nil(t, svc.TrashNote(alice, trashed.ID))

	notes, apierr := svc.GetOwnNotes(alice, false)
	require.Nil(t, apierr)
	require.Len(t, notes, 1)
	require.Equal(t, "active", notes[0].Title)

	notes, apierr = svc.GetOwnNotes(alice, true)
	require.Nil(t, apierr)
	require.Len(t, notes, 2)
}

func TestNoteService_SharedFeed(t *testing.T) {
	svc, userRepo, _ := newNoteService(t, "notesvc_feed")
	alice := seedUser(t, userRepo, 1, "alice")
	bob := seedUser(t, userRepo, 2, "bob")
	carol := seedUser(t, userRepo, 3, "carol")
	befriend(t, userRepo, alice, bob)

	_, apierr := svc.CreateNote(alice, &contract.CreateNoteRequest{Title: "visible", Public: true})
	require.Nil(t, apierr)
	_, apierr = svc.CreateNote(alice, &contract.CreateNoteRequest{Title: "hidden"})
	require.Nil(t, apierr)
	_, apierr = svc.CreateNote(carol, &contract.CreateNoteRequest{Title: "not a friend", Public: true})
	require.Nil(t, apierr)

	feed, apierr := svc.GetSharedNotes(bob)
	require.Nil(t, apierr)
	require.Len(t, feed, 1)
	require.Equal(t, "visible", feed[0].Title)

	// No friends, no feed
	feed, apierr = svc.GetSharedNotes(carol)
	require.Nil(t, apierr)
	require.Empty(t, feed)
}

func TestNoteService_UpdatePatch(t *testing.T) {
	svc, userRepo, _ := newNoteService(t, "notesvc_update")
	alice := seedUser(t, userRepo, 1, "alice")
	bob := seedUser(t, userRepo, 2, "bob")

	created, apierr := svc.CreateNote(alice, &contract.CreateNoteRequest{Title: "draft", Content: "body"})
	require.Nil(t, apierr)

	title := "final"
	pinned := true
	updated, apierr := svc.UpdateNote(alice, created.ID, &contract.UpdateNoteRequest{Title: &title, Pinned: &pinned})
	require.Nil(t, apierr)
	require.Equal(t, "final", updated.Title)
	require.True(t, updated.Pinned)
	require.Equal(t, "body", updated.Content) // untouched fields survive

	_, apierr = svc.UpdateNote(bob, created.ID, &contract.UpdateNoteRequest{Title: &title})
	require.Equal(t, apierror.NotFoundError, apierr)
}

func TestNoteService_TrashLifecycle(t *testing.T) {
	svc, userRepo, _ := newNoteService(t, "notesvc_trash")
	alice := seedUser(t, userRepo, 1, "alice")

	created, apierr := svc.CreateNote(alice, &contract.CreateNoteRequest{Title: "doomed"})
	require.Nil(t, apierr)

	require.Nil(t, svc.TrashNote(alice, created.ID))

	got, apierr := svc.GetNote(alice, created.ID)
	require.Nil(t, apierr)
	require.True(t, got.Trashed)
	require.NotEmpty(t, got.TrashedAt)

	trash, apierr := svc.GetTrash(alice)
	require.Nil(t, apierr)
	require.Len(t, trash, 1)

	// Frozen while trashed
	title := "nope"
	_, apierr = svc.UpdateNote(alice, created.ID, &contract.UpdateNoteRequest{Title: &title})
	require.Equal(t, apierror.NoteTrashedError, apierr)

	require.Equal(t, apierror.NoteTrashedError, svc.TrashNote(alice, created.ID))

	restored, apierr := svc.RestoreNote(alice, created.ID)
	require.Nil(t, apierr)
	require.False(t, restored.Trashed)
	require.Empty(t, restored.TrashedAt)

	require.Equal(t, apierror.NoteNotTrashedError, svc.PurgeNote(alice, created.ID))

	require.Nil(t, svc.TrashNote(alice, created.ID))
	require.Nil(t, svc.PurgeNote(alice, created.ID))

	_, apierr = svc.GetNote(alice, created.ID)
	require.Equal(t, apierror.NotFoundError, apierr)
}

func TestNoteService_ToggleLike(t *testing.T) {
	svc, userRepo, _ := newNoteService(t, "notesvc_like")
	alice := seedUser(t, userRepo, 1, "alice")
	bob := seedUser(t, userRepo, 2, "bob")
	befriend(t, userRepo, alice, bob)

	created, apierr := svc.CreateNote(alice, &contract.CreateNoteRequest{Title: "likeable", Public: true})
	require.Nil(t, apierr)

	liked, apierr := svc.ToggleLike(bob, created.ID)
	require.Nil(t, apierr)
	require.True(t, liked.Liked)
	require.Equal(t, 1, liked.Likes)

	// Owner liking their own note is fine
	ownerLike, apierr := svc.ToggleLike(alice, created.ID)
	require.Nil(t, apierr)
	require.True(t, ownerLike.Liked)
	require.Equal(t, 2, ownerLike.Likes)

	unliked, apierr := svc.ToggleLike(bob, created.ID)
	require.Nil(t, apierr)
	require.False(t, unliked.Liked)
	require.Equal(t, 1, unliked.Likes)

	got, apierr := svc.GetNote(alice, created.ID)
	require.Nil(t, apierr)
	require.True(t, got.Liked)
	require.Equal(t, 1, got.Likes)
}

func TestNoteService_Images(t *testing.T) {
	svc, userRepo, s3 := newNoteService(t, "notesvc_images")
	alice := seedUser(t, userRepo, 1, "alice")

	files := []*multipartFile{
		{name: "a.png", content: []byte("png-a")},
		{name: "b.jpg", content: []byte("jpg-b")},
	}
	created, apierr := svc.CreateNoteWithImages(alice, &contract.CreateNoteRequest{Title: "gallery"}, fileHeaders(t, files))
	require.Nil(t, apierr)
	require.Len(t, created.Images, 2)
	require.True(t, strings.HasPrefix(created.Images[0].URL, "https://cdn.test/note-images/"))
	require.Len(t, s3.objects, 2)

	more := makeFileHeader(t, "c.webp", []byte("webp-c"))
	withThree, apierr := svc.AddImage(alice, created.ID, more)
	require.Nil(t, apierr)
	require.Len(t, withThree.Images, 3)
	require.Len(t, s3.objects, 3)

	shrunk, apierr := svc.RemoveImage(alice, created.ID, withThree.Images[0].ID)
	require.Nil(t, apierr)
	require.Len(t, shrunk.Images, 2)
	require.Len(t, s3.objects, 2)

	_, apierr = svc.RemoveImage(alice, created.ID, 424242)
	require.Equal(t, apierror.ImageNotFoundError, apierr)
}

func TestNoteService_ImageChecks(t *testing.T) {
	svc, userRepo, s3 := newNoteService(t, "notesvc_imagechecks")
	alice := seedUser(t, userRepo, 1, "alice")

	// Bad extension is rejected before anything is uploaded
	bad := fileHeaders(t, []*multipartFile{{name: "notes.txt", content: []byte("hi")}})
	_, apierr := svc.CreateNoteWithImages(alice, &contract.CreateNoteRequest{Title: "doc"}, bad)
	require.NotNil(t, apierr)
	require.Equal(t, 400, apierr.Code())
	require.Empty(t, s3.objects)

	// Image cap applies on create
	var crowd []*multipartFile
	for i := 0; i < contract.MaxImagesPerNote+1; i++ {
		crowd = append(crowd, &multipartFile{name: "p.png", content: []byte("x")})
	}
	_, apierr = svc.CreateNoteWithImages(alice, &contract.CreateNoteRequest{Title: "crowd"}, fileHeaders(t, crowd))
	require.NotNil(t, apierr)
	require.Equal(t, 400, apierr.Code())
	require.Empty(t, s3.objects)
}

func TestNoteService_UploadFailure(t *testing.T) {
	svc, userRepo, s3 := newNoteService(t, "notesvc_uploadfail")
	alice := seedUser(t, userRepo, 1, "alice")

	s3.uploadErr = errors.New("bucket unavailable")
	files := fileHeaders(t, []*multipartFile{{name: "a.png", content: []byte("x")}})
	_, apierr := svc.CreateNoteWithImages(alice, &contract.CreateNoteRequest{Title: "pics"}, files)
	require.Equal(t, apierror.InternalServerError, apierr)
	require.Empty(t, s3.objects)
}

type multipartFile struct {
	name    string
	content []byte
}

func fileHeaders(t *testing.T, files []*multipartFile) []*multipart.FileHeader {
	t.Helper()

	headers := make([]*multipart.FileHeader, len(files))
	for i, f := range files {
		headers[i] = makeFileHeader(t, f.name, f.content)
	}
	return headers
}
