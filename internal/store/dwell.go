package store

import (
	"time"

	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// BeginURL starts (or resumes) a dwell session for pid at url. If pid was
// already dwelling on a different URL, that session is closed out first and
// its elapsed time folded into the accumulator.
func (s *Store) BeginURL(pid int32, url string, at time.Time) {
	if url == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.activeURL[pid]; ok {
		if sess.url == url {
			return
		}
		s.closeURLLocked(sess, at)
	}
	s.activeURL[pid] = urlSession{url: url, since: at}
}

// EndURL closes out pid's current dwell session, if any, folding the
// elapsed time into that URL's accumulator.
func (s *Store) EndURL(pid int32, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.activeURL[pid]
	if !ok {
		return
	}
	s.closeURLLocked(sess, at)
	delete(s.activeURL, pid)
}

func (s *Store) closeURLLocked(sess urlSession, at time.Time) {
	elapsed := at.Sub(sess.since)
	if elapsed <= 0 {
		return
	}

	rec, ok := s.dwell[sess.url]
	if !ok {
		rec = &contextmodel.UrlDwellRecord{URL: sess.url, FirstSeen: sess.since}
		s.dwell[sess.url] = rec
	}
	rec.TotalDuration += elapsed
	rec.SessionCount++
	rec.LastSeen = at
}

// DwellFor returns the accumulated dwell record for url, if any has been
// recorded yet.
func (s *Store) DwellFor(url string) (contextmodel.UrlDwellRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.dwell[url]
	if !ok {
		return contextmodel.UrlDwellRecord{}, false
	}
	return *rec, true
}
