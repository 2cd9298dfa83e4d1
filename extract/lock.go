package extract

import "sync"

// DomainLocks serializes work per domain. Learning the same domain twice
// at once would race on its stored config; different domains never wait
// on each other. The zero value is ready to use.
type DomainLocks struct {
	mu    sync.Mutex
	locks map[string]*domainLock
}

type domainLock struct {
	mu   sync.Mutex
	refs int
}

// Lock blocks until domain is free and returns the function that frees it.
func (l *DomainLocks) Lock(domain string) (unlock func()) {
	if l == nil {
		return func() {}
	}

	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*domainLock)
	}
	dl, ok := l.locks[domain]
	if !ok {
		dl = &domainLock{}
		l.locks[domain] = dl
	}
	dl.refs++
	l.mu.Unlock()

	dl.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			dl.mu.Unlock()
			l.mu.Lock()
			dl.refs--
			if dl.refs == 0 {
				delete(l.locks, domain)
			}
			l.mu.Unlock()
		})
	}
}
