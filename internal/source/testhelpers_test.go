package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/geocollider/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func collect(t *testing.T, src Source) ([]model.RawRecord, error) {
	t.Helper()
	var recs []model.RawRecord
	err := src.Each(context.Background(), func(r model.RawRecord) error {
		recs = append(recs, r)
		return nil
	})
	return recs, err
}
