package server

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// MOTD holds the message of the day, reloaded automatically when the
// backing file changes on disk.
type MOTD struct {
	path string

	mu    sync.RWMutex
	lines []string
}

// NewMOTD loads the MOTD file. A missing file is not fatal; the server
// answers 422 until one appears.
func NewMOTD(path string) *MOTD {
	m := &MOTD{path: path}
	if err := m.reload(); err != nil {
		log.Printf("motd: %v", err)
	}
	return m
}

func (m *MOTD) reload() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return err
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	m.mu.Lock()
	m.lines = lines
	m.mu.Unlock()
	log.Printf("motd: loaded %d lines from %s", len(lines), m.path)
	return nil
}

// Lines returns the current MOTD content, or nil when none is loaded.
func (m *MOTD) Lines() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lines
}

// Watch reloads the MOTD whenever its file is written or replaced. The
// parent directory is watched because editors often rename over the file.
func (m *MOTD) Watch() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("motd: watch unavailable: %v", err)
		return
	}
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		log.Printf("motd: watch %s: %v", m.path, err)
		watcher.Close()
		return
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != m.path {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if err := m.reload(); err != nil {
					log.Printf("motd: reload: %v", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("motd: watcher: %v", err)
			}
		}
	}()
}

// sendMOTD answers a MOTD request or the registration burst.
func (s *Server) sendMOTD(c *Client) {
	var lines []string
	if s.motd != nil {
		lines = s.motd.Lines()
	}
	if len(lines) == 0 {
		c.SendNumeric(ErrNoMotd, "MOTD File is missing")
		return
	}
	c.SendNumeric(RplMotdStart, "- "+s.cfg.ServerName+" Message of the day -")
	for _, line := range lines {
		c.SendNumeric(RplMotd, "- "+line)
	}
	c.SendNumeric(RplEndOfMotd, "End of /MOTD command")
}
