// Package store implements the Record Store: the component that maps
// identifiers to encrypted serialized values and their optional encrypted
// attachments, delegating to the Encryption Provider and the Atomic File
// Writer, and co-ordinating updates to an optional Index Provider.
//
// Grounded on pkg/core/descriptors/store.go's Save/Load shape (serialize,
// encrypt, atomic-write; reverse on load) and encrypted_store.go's
// EncryptedDescriptor envelope convention, generalized from a fixed
// descriptor type to a pluggable Serializer over arbitrary application
// values, and extended with the attachment and index co-ordination the
// descriptor store does not have.
package store

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/cabinetdb/cabinet/internal/diagnostics"
	"github.com/cabinetdb/cabinet/internal/identifier"
	"github.com/cabinetdb/cabinet/pkg/atomicfile"
	cabinetErrors "github.com/cabinetdb/cabinet/pkg/errors"
	"github.com/cabinetdb/cabinet/pkg/model"
)

const (
	recordsDir     = "records"
	attachmentsDir = "attachments"
	indexDir       = "index"
)

// Encryptor is the capability the Record Store needs from the Encryption
// Provider: seal and open byte buffers under a context string.
type Encryptor interface {
	Encrypt(ctx context.Context, plaintext []byte, aadContext string) ([]byte, error)
	Decrypt(ctx context.Context, envelope []byte, aadContext string) ([]byte, error)
}

// Indexer is the capability the Record Store needs from the Index Provider.
// Kept minimal so the store package does not import pkg/searchindex.
type Indexer interface {
	Index(ctx context.Context, id, content string, metadata map[string]string) error
	Query(ctx context.Context, query string) ([]model.SearchResult, error)
}

// Config configures a Store.
type Config struct {
	Root        string
	Encryptor   Encryptor
	Index       Indexer // optional; nil disables indexing and Find
	Serializer  Serializer
	Reporter    *diagnostics.Reporter
	Logger      *zap.SugaredLogger
}

// Store is the Record Store.
type Store struct {
	root       string
	enc        Encryptor
	index      Indexer
	serializer Serializer
	writer     *atomicfile.Writer
	reporter   *diagnostics.Reporter
	logger     *zap.SugaredLogger
}

// Open constructs a Store rooted at cfg.Root, ensuring the records/,
// attachments/, and index/ subdirectories exist and sweeping any stale
// ".tmp" files left by a prior crash.
func Open(cfg Config) (*Store, error) {
	if cfg.Root == "" {
		return nil, cabinetErrors.NewRequiredFieldError("root")
	}
	if cfg.Encryptor == nil {
		return nil, cabinetErrors.NewRequiredFieldError("encryptor")
	}

	for _, sub := range []string{recordsDir, attachmentsDir, indexDir} {
		if err := os.MkdirAll(filepath.Join(cfg.Root, sub), 0o700); err != nil {
			return nil, cabinetErrors.NewStoreError(err, cabinetErrors.ErrorCodeIO, "failed to create subdirectory").WithPath(sub)
		}
	}

	writer, err := atomicfile.NewWriter(cfg.Root)
	if err != nil {
		return nil, err
	}

	serializer := cfg.Serializer
	if serializer == nil {
		serializer = DefaultSerializer()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Store{
		root:       cfg.Root,
		enc:        cfg.Encryptor,
		index:      cfg.Index,
		serializer: serializer,
		writer:     writer,
		reporter:   cfg.Reporter,
		logger:     logger,
	}
	s.logger.Infow("record store opened", "root", cfg.Root, "indexEnabled", cfg.Index != nil)
	return s, nil
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.root, recordsDir, id+".dat")
}

func (s *Store) attachmentPath(id, logicalName string) string {
	return filepath.Join(s.root, attachmentsDir, id+"-"+logicalName+".bin")
}

// Save serializes value, encrypts it under context=id, and atomically
// writes it to records/<id>.dat. Attachments, if any, are each encrypted
// under the same context and atomically written to
// attachments/<id>-<logicalName>.bin. If an Index Provider is configured,
// the serialized text form is indexed after the record file is durable; the
// record write has already committed by the time indexing runs, so an
// index failure never undoes it.
func (s *Store) Save(ctx context.Context, id string, value any, attachments ...model.Attachment) error {
	if err := identifier.Validate("id", id); err != nil {
		return err
	}
	if err := validateAttachmentNames(attachments); err != nil {
		return err
	}

	payload, err := s.serializer.Marshal(value)
	if err != nil {
		return cabinetErrors.NewSerializationError(err, "failed to serialize record value").WithTargetType(typeName(value))
	}

	envelope, err := s.enc.Encrypt(ctx, payload, id)
	if err != nil {
		return err
	}

	if err := s.writer.Write(s.recordPath(id), envelope); err != nil {
		return err
	}

	for _, att := range attachments {
		attEnvelope, err := s.enc.Encrypt(ctx, att.Bytes, id)
		if err != nil {
			return err
		}
		if err := s.writer.Write(s.attachmentPath(id, att.LogicalName), attEnvelope); err != nil {
			return err
		}
	}

	if s.index != nil {
		if err := s.index.Index(ctx, id, string(payload), map[string]string{}); err != nil {
			s.logger.Warnw("index update failed after record save", "id", id, "error", err)
			s.reporter.Report(diagnostics.Diagnostic{
				Severity: diagnostics.SeverityWarning,
				Source:   "store",
				ID:       id,
				Message:  "index update failed after record save",
				Cause:    err,
			})
		}
	}

	return nil
}

func validateAttachmentNames(attachments []model.Attachment) error {
	seen := make(map[string]struct{}, len(attachments))
	for _, att := range attachments {
		if err := identifier.Validate("attachment.logicalName", att.LogicalName); err != nil {
			return err
		}
		if _, dup := seen[att.LogicalName]; dup {
			return cabinetErrors.NewDuplicateAttachmentError(att.LogicalName)
		}
		seen[att.LogicalName] = struct{}{}
	}
	return nil
}

// Load reads records/<id>.dat, decrypts it under context=id, and
// deserializes it into target. found is false and err is nil when the
// record does not exist. A decryption or deserialization failure is
// returned as an error; it is never collapsed into "not found".
func (s *Store) Load(ctx context.Context, id string, target any) (found bool, err error) {
	if err := identifier.Validate("id", id); err != nil {
		return false, err
	}

	if !s.writer.Exists(s.recordPath(id)) {
		return false, nil
	}

	envelope, err := s.writer.Read(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	plaintext, err := s.enc.Decrypt(ctx, envelope, id)
	if err != nil {
		return false, err
	}

	if err := s.serializer.Unmarshal(plaintext, target); err != nil {
		return false, cabinetErrors.NewSerializationError(err, "failed to deserialize record value").WithTargetType(typeName(target))
	}

	return true, nil
}

// LoadRaw returns the decrypted plaintext bytes for id without
// deserialization, for callers (such as the Search Coordinator) that need
// to attempt more than one target shape.
func (s *Store) LoadRaw(ctx context.Context, id string) (plaintext []byte, found bool, err error) {
	if !s.writer.Exists(s.recordPath(id)) {
		return nil, false, nil
	}
	envelope, err := s.writer.Read(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	plaintext, err = s.enc.Decrypt(ctx, envelope, id)
	if err != nil {
		return nil, false, err
	}
	return plaintext, true, nil
}

// Serializer exposes the Store's configured Serializer so collaborators
// (the Search Coordinator) deserialize with the same codec used to save.
func (s *Store) Serializer() Serializer {
	return s.serializer
}

// Delete removes records/<id>.dat if present and every file under
// attachments/ whose name begins with "<id>-". Deleting an unknown
// identifier is not an error. The corresponding index entry, if any, is
// left in place (see DESIGN.md open-question decision).
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := identifier.Validate("id", id); err != nil {
		return err
	}

	if err := s.writer.Remove(s.recordPath(id)); err != nil {
		return err
	}

	prefix := id + "-"
	dir := filepath.Join(s.root, attachmentsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return cabinetErrors.NewStoreError(err, cabinetErrors.ErrorCodeIO, "failed to list attachments directory").WithPath(dir).WithID(id)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			if err := s.writer.Remove(filepath.Join(dir, entry.Name())); err != nil {
				return err
			}
		}
	}

	return nil
}

// Find returns the Index Provider's query results verbatim. If no Index
// Provider is configured, it returns an empty sequence. No data is
// decrypted by Find itself.
func (s *Store) Find(ctx context.Context, query string) ([]model.SearchResult, error) {
	if s.index == nil {
		return nil, nil
	}
	return s.index.Query(ctx, query)
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}
