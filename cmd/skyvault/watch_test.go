package main

import (
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
)

func TestIsExcludedName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"notes.txt", false},
		{"download.partial", true},
		{"scratch.tmp", true},
		{"edit.swp", true},
		{"page.crdownload", true},
		{"ARCHIVE.TMP", true},
		{"~backup", true},
		{".~lock.report.odt#", true},
		{".hidden", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isExcludedName(tt.name))
		})
	}
}

func TestHandleFsEvent(t *testing.T) {
	newSession := func() *watchSession {
		return &watchSession{logger: testLogger(), pending: make(map[string]struct{})}
	}

	t.Run("create marks pending", func(t *testing.T) {
		w := newSession()

		restart := w.handleFsEvent(fsnotify.Event{Name: "/tmp/a.txt", Op: fsnotify.Create})
		assert.True(t, restart)
		assert.Contains(t, w.pending, "/tmp/a.txt")
	})

	t.Run("write marks pending", func(t *testing.T) {
		w := newSession()

		restart := w.handleFsEvent(fsnotify.Event{Name: "/tmp/a.txt", Op: fsnotify.Write})
		assert.True(t, restart)
		assert.Contains(t, w.pending, "/tmp/a.txt")
	})

	t.Run("chmod alone ignored", func(t *testing.T) {
		w := newSession()

		restart := w.handleFsEvent(fsnotify.Event{Name: "/tmp/a.txt", Op: fsnotify.Chmod})
		assert.False(t, restart)
		assert.Empty(t, w.pending)
	})

	t.Run("remove ignored", func(t *testing.T) {
		w := newSession()

		restart := w.handleFsEvent(fsnotify.Event{Name: "/tmp/a.txt", Op: fsnotify.Remove})
		assert.False(t, restart)
		assert.Empty(t, w.pending)
	})

	t.Run("excluded name ignored", func(t *testing.T) {
		w := newSession()

		restart := w.handleFsEvent(fsnotify.Event{Name: "/tmp/a.partial", Op: fsnotify.Create})
		assert.False(t, restart)
		assert.Empty(t, w.pending)
	})
}
