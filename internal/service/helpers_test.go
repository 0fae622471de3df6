package service_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"socialnotes/internal/domain/entity"
	"socialnotes/internal/domain/sqlite"
	"socialnotes/internal/domain/sqlite/repository"
	"socialnotes/internal/utils"
	"socialnotes/internal/utils/uid"
	"socialnotes/internal/utils/validators"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	if err := uid.Init(1); err != nil {
		panic(err)
	}
	if err := utils.InitTokenSigner("service-test-secret"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	db, err := sqlite.Init("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, derr := db.DB()
		if derr == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newValidate(t *testing.T) *validator.Validate {
	t.Helper()

	v := validator.New()
	require.NoError(t, v.RegisterValidation("hasupper", validators.HasUpper))
	require.NoError(t, v.RegisterValidation("haslower", validators.HasLower))
	require.NoError(t, v.RegisterValidation("hasdigit", validators.HasDigit))
	require.NoError(t, v.RegisterValidation("hasspecial", validators.HasSpecial))
	return v
}

func seedUser(t *testing.T, repo *repository.DefaultUserRepository, id int64, name string) *entity.User {
	t.Helper()

	now := time.Now().UnixMilli()
	user := &entity.User{
		ID:        id,
		Email:     name + "@mail.com",
		Username:  name,
		Provider:  entity.ProviderLocal,
		Friends:   entity.IDList{},
		Incoming:  entity.IDList{},
		Outgoing:  entity.IDList{},
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Save(user))
	return user
}

// befriend links two users directly in the database, bypassing the request
// flow.
func befriend(t *testing.T, repo *repository.DefaultUserRepository, a, b *entity.User) {
	t.Helper()

	a.Friends = append(a.Friends, b.ID)
	b.Friends = append(b.Friends, a.ID)
	require.NoError(t, repo.SaveBoth(a, b))
}

func reloadUser(t *testing.T, repo *repository.DefaultUserRepository, id int64) *entity.User {
	t.Helper()

	user, err := repo.FindByID(id)
	require.NoError(t, err)
	require.NotNil(t, user)
	return user
}

// fakeStorage is an in-memory stand-in for the bucket.
type fakeStorage struct {
	objects   map[string][]byte
	uploadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) UploadFile(data []byte, key string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) DeleteFile(key string) error {
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

// makeFileHeader builds a real *multipart.FileHeader the way echo would hand
// it to a handler.
func makeFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["file"][0]
}
