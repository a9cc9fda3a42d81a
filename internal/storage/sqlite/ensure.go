package sqlite

import "github.com/zmuhls/cloze-reader-sub000/internal/progress"

var _ progress.Store = (*ProgressStore)(nil)
