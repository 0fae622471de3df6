package service

import (
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"socialnotes/internal/domain/entity"
	"socialnotes/internal/infrastructure/aws/storage"
	"socialnotes/internal/utils"
	"socialnotes/internal/utils/apierror"
	"socialnotes/internal/utils/uid"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

func checkImageFile(fileHeader *multipart.FileHeader, maxBytes int64, validTypes []string) apierror.ErrorResponse {
	if fileHeader.Size > maxBytes {
		return apierror.NewFileTooLargeError(maxBytes)
	}

	if strings.TrimSpace(fileHeader.Filename) == "" {
		return apierror.MissingFileNameError
	}

	if ext, ok := utils.CheckFileExt(fileHeader.Filename, validTypes); !ok {
		return apierror.NewInvalidFileExtError(ext)
	}
	return nil
}

func readMultipartFile(fileHeader *multipart.FileHeader) ([]byte, apierror.ErrorResponse) {
	file, err := fileHeader.Open()
	if err != nil {
		log.Errorf("failed to open file: %v", err)
		return nil, apierror.InternalServerError
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		log.Errorf("failed to read file: %v", err)
		return nil, apierror.InternalServerError
	}
	return bytes, nil
}

func uploadNoteImage(s3 storage.S3Client, fileHeader *multipart.FileHeader) (entity.NoteImage, apierror.ErrorResponse) {
	key, apierr := uploadFile(s3, fileHeader, storage.PathNoteImages)
	if apierr != nil {
		return entity.NoteImage{}, apierr
	}

	return entity.NoteImage{
		ID:         uid.Generate(),
		URL:        s3.PublicURL(key),
		StorageKey: key,
	}, nil
}

func uploadAvatar(s3 storage.S3Client, fileHeader *multipart.FileHeader) (string, apierror.ErrorResponse) {
	return uploadFile(s3, fileHeader, storage.PathAvatars)
}

func uploadFile(s3 storage.S3Client, fileHeader *multipart.FileHeader, prefix string) (string, apierror.ErrorResponse) {
	ext := filepath.Ext(fileHeader.Filename)
	bytes, apierr := readMultipartFile(fileHeader)
	if apierr != nil {
		return "", apierr
	}

	key := prefix + uuid.NewString() + ext
	err := s3.UploadFile(bytes, key)
	if err != nil {
		log.Errorf("failed to upload file: %v", err)
		return "", apierror.InternalServerError
	}
	return key, nil
}
