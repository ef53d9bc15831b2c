package file_service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joonaskit/Summa/services/rag_service"
)

// ErrAccessDenied is returned for paths that try to escape the data directory.
var ErrAccessDenied = fmt.Errorf("access denied")

// ErrNotFound is returned for paths with no file behind them.
var ErrNotFound = fmt.Errorf("file not found")

// MetadataStore is the bookkeeping side of the library: file rows, tags and
// summary presence. Optional; a nil store disables syncing.
type MetadataStore interface {
	UpsertFileMetadata(ctx context.Context, path, filename, fileType string, size int64, lastModified time.Time) error
	DeleteFile(ctx context.Context, path string) error
	FilesWithSummaries(ctx context.Context) ([]string, error)
	FileTags(ctx context.Context, path string) ([]string, error)
}

// FileInfo describes one library file as shown in listings.
type FileInfo struct {
	Name       string   `json:"name"`
	Path       string   `json:"path"`
	Type       string   `json:"type"`
	Size       int64    `json:"size"`
	Modified   string   `json:"modified"`
	HasSummary bool     `json:"has_summary"`
	Tags       []string `json:"tags,omitempty"`
}

// FileContent is the displayable content of one file.
type FileContent struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

var libraryExtensions = map[string]bool{
	".md":   true,
	".txt":  true,
	".pdf":  true,
	".docx": true,
	".pptx": true,
	".xlsx": true,
}

// LocalFileService manages the single data directory holding the user's
// documents.
type LocalFileService struct {
	rootDir   string
	metadata  MetadataStore
	extractor *rag_service.DocumentExtractor
	logger    *slog.Logger
}

func NewLocalFileService(rootDir string, metadata MetadataStore, extractor *rag_service.DocumentExtractor, logger *slog.Logger) (*LocalFileService, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &LocalFileService{
		rootDir:   rootDir,
		metadata:  metadata,
		extractor: extractor,
		logger:    logger,
	}, nil
}

// resolve maps a library-relative path to an absolute one, rejecting
// directory traversal.
func (s *LocalFileService) resolve(relPath string) (string, error) {
	if strings.Contains(relPath, "..") {
		return "", ErrAccessDenied
	}
	fullPath := filepath.Join(s.rootDir, relPath)
	absRoot, err := filepath.Abs(s.rootDir)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}
	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(os.PathSeparator)) {
		return "", ErrAccessDenied
	}
	return fullPath, nil
}

// ListFiles walks the data directory for supported document types, syncing
// metadata rows along the way when a store is configured.
func (s *LocalFileService) ListFiles(ctx context.Context) ([]FileInfo, error) {
	summaries := map[string]bool{}
	if s.metadata != nil {
		paths, err := s.metadata.FilesWithSummaries(ctx)
		if err != nil {
			s.logger.Warn("Failed to load summary index",
				slog.String("error", err.Error()))
		}
		for _, p := range paths {
			summaries[p] = true
		}
	}

	files := make([]FileInfo, 0)
	err := filepath.Walk(s.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(info.Name()))
		if !libraryExtensions[ext] {
			return nil
		}

		relPath, err := filepath.Rel(s.rootDir, path)
		if err != nil {
			return err
		}

		fileInfo := FileInfo{
			Name:       info.Name(),
			Path:       relPath,
			Type:       strings.TrimPrefix(ext, "."),
			Size:       info.Size(),
			Modified:   info.ModTime().Format("2006-01-02 15:04:05"),
			HasSummary: summaries[relPath],
		}

		if s.metadata != nil {
			if err := s.metadata.UpsertFileMetadata(ctx, relPath, info.Name(), fileInfo.Type, info.Size(), info.ModTime()); err != nil {
				s.logger.Warn("Failed to sync file metadata",
					slog.String("path", relPath),
					slog.String("error", err.Error()))
			}
			if tags, err := s.metadata.FileTags(ctx, relPath); err == nil {
				fileInfo.Tags = tags
			}
		}

		files = append(files, fileInfo)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// ReadFile returns the raw bytes of a library file.
func (s *LocalFileService) ReadFile(relPath string) ([]byte, error) {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, relPath)
		}
		return nil, err
	}
	return data, nil
}

// GetContent returns the extracted text of a library file for display.
func (s *LocalFileService) GetContent(relPath string) (*FileContent, error) {
	data, err := s.ReadFile(relPath)
	if err != nil {
		return nil, err
	}
	text, err := s.extractor.Extract(relPath, data)
	if err != nil {
		return nil, err
	}
	return &FileContent{Content: text, Type: "text"}, nil
}

// SaveContent writes text content as a new file in the data directory root.
func (s *LocalFileService) SaveContent(ctx context.Context, filename, content string) (string, error) {
	safeName := filepath.Base(filename)
	fullPath := filepath.Join(s.rootDir, safeName)

	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	s.syncMetadata(ctx, safeName, fullPath)
	return safeName, nil
}

// SaveUpload stores an uploaded binary stream in the data directory root.
func (s *LocalFileService) SaveUpload(ctx context.Context, r io.Reader, filename string) (string, error) {
	safeName := filepath.Base(filename)
	fullPath := filepath.Join(s.rootDir, safeName)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.syncMetadata(ctx, safeName, fullPath)
	return safeName, nil
}

// Delete removes a file from disk and from the metadata store.
func (s *LocalFileService) Delete(ctx context.Context, relPath string) error {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, relPath)
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if s.metadata != nil {
		if err := s.metadata.DeleteFile(ctx, relPath); err != nil {
			s.logger.Warn("Failed to delete file metadata",
				slog.String("path", relPath),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *LocalFileService) syncMetadata(ctx context.Context, relPath, fullPath string) {
	if s.metadata == nil {
		return
	}
	stat, err := os.Stat(fullPath)
	if err != nil {
		return
	}
	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(relPath)), ".")
	if err := s.metadata.UpsertFileMetadata(ctx, relPath, filepath.Base(relPath), fileType, stat.Size(), stat.ModTime()); err != nil {
		s.logger.Warn("Failed to sync file metadata",
			slog.String("path", relPath),
			slog.String("error", err.Error()))
	}
}
