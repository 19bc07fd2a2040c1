package ingest

import (
	"context"
	"strings"
)

// ExistenceChecker is the part of the artifact store the validator needs.
type ExistenceChecker interface {
	Exists(ctx context.Context, key string) (bool, error)
}

// Upload describes a client file before anything is written.
type Upload struct {
	Name string
	Size int64
}

// Validator accepts or rejects uploads without side effects.
type Validator struct {
	store ExistenceChecker
	rules map[Artifact]Rule
}

func NewValidator(store ExistenceChecker, rules map[Artifact]Rule) *Validator {
	return &Validator{store: store, rules: rules}
}

func (v *Validator) Rule(a Artifact) Rule { return v.rules[a] }

// Validate checks, in order, that a retained artifact's target does not
// exist, that the size is within the ceiling and that the extension matches.
// It returns the storage key for retained artifacts.
//
// The existence test is not exclusive: two concurrent uploads of one name can
// both pass, and the store's unique filename index decides.
func (v *Validator) Validate(ctx context.Context, a Artifact, up Upload) (string, error) {
	rule := v.rules[a]
	key, err := v.target(ctx, a, up.Name)
	if err != nil {
		return "", err
	}
	if rule.MaxBytes > 0 && up.Size > rule.MaxBytes {
		return "", newError(FileTooLarge, MsgFileTooLarge, nil)
	}
	if rule.Extension != "" && !strings.HasSuffix(key, rule.Extension) {
		return "", newError(UnsupportedFileType, rule.WrongTypeMessage, nil)
	}
	return key, nil
}

// CheckTarget runs only the first step of Validate, so a transport can reject
// a duplicate name before it has read the body. Kinds that are not retained
// always pass.
func (v *Validator) CheckTarget(ctx context.Context, a Artifact, name string) error {
	_, err := v.target(ctx, a, name)
	return err
}

func (v *Validator) target(ctx context.Context, a Artifact, name string) (string, error) {
	rule := v.rules[a]
	if !rule.Retained {
		return "", nil
	}
	key := Basename(name)
	if key == "" {
		return "", newError(UnsupportedFileType, rule.WrongTypeMessage, nil)
	}
	exists, err := v.store.Exists(ctx, key)
	if err != nil {
		return "", newError(UploadMoveFailed, MsgUploadFailed, err)
	}
	if exists {
		return "", newError(DuplicateFile, MsgDuplicateFile, nil)
	}
	return key, nil
}

// Basename strips any directory components, for either separator, from a
// client supplied name. It returns "" for names that have no usable base.
func Basename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}
