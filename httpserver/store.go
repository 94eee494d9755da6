package httpserver

import (
	"cmp"
	"crypto/x509/pkix"
	"slices"
	"sync"
	"time"

	"github.com/ruteri/tinycert-go/api"
	"github.com/ruteri/tinycert-go/cryptoutils"
	"github.com/ruteri/tinycert-go/interfaces"
)

type caRecord struct {
	owner   string
	details api.CADetails
	issued  *cryptoutils.IssuedCertificate
}

type certRecord struct {
	owner   string
	caID    interfaces.CAID
	request interfaces.CertRequest
	status  interfaces.CertStatus
	issued  *cryptoutils.IssuedCertificate
}

func (c *certRecord) expired(now time.Time) bool {
	return now.After(c.issued.Cert.NotAfter)
}

// matches reports whether the certificate is selected by a cert/list filter.
func (c *certRecord) matches(states interfaces.CertState, now time.Time) bool {
	if c.expired(now) {
		return states&interfaces.StateExpired != 0
	}
	return states&c.status.State() != 0
}

func (c *certRecord) info(id interfaces.CertID) api.CertInfo {
	return api.CertInfo{
		ID:      id,
		Name:    c.request.CN,
		Status:  c.status,
		Expires: c.issued.Cert.NotAfter.Unix(),
	}
}

func (c *certRecord) details(id interfaces.CertID, hashAlg string) api.CertDetails {
	alt := make([]map[string]string, 0, len(c.request.SANs))
	for _, san := range c.request.SANs {
		alt = append(alt, map[string]string{string(san.Type): san.Value})
	}
	return api.CertDetails{
		ID:      id,
		Status:  c.status,
		C:       c.request.C,
		ST:      c.request.ST,
		L:       c.request.L,
		O:       c.request.O,
		OU:      c.request.OU,
		CN:      c.request.CN,
		Alt:     alt,
		HashAlg: hashAlg,
	}
}

func (c *certRecord) subject() pkix.Name {
	return pkix.Name{
		Country:            nonEmpty(c.request.C),
		Organization:       nonEmpty(c.request.O),
		OrganizationalUnit: nonEmpty(c.request.OU),
		Locality:           nonEmpty(c.request.L),
		Province:           nonEmpty(c.request.ST),
		CommonName:         c.request.CN,
	}
}

// memoryStore holds accounts, sessions, CAs and certificates of the fake
// service. All methods are safe for concurrent use.
type memoryStore struct {
	mu       sync.Mutex
	accounts map[string]cryptoutils.PassphraseHash
	sessions map[string]string
	cas      map[interfaces.CAID]*caRecord
	certs    map[interfaces.CertID]*certRecord
	lastID   int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		accounts: make(map[string]cryptoutils.PassphraseHash),
		sessions: make(map[string]string),
		cas:      make(map[interfaces.CAID]*caRecord),
		certs:    make(map[interfaces.CertID]*certRecord),
	}
}

func (s *memoryStore) addAccount(email string, hash cryptoutils.PassphraseHash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = hash
}

func (s *memoryStore) account(email string) (cryptoutils.PassphraseHash, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, ok := s.accounts[email]
	return hash, ok
}

func (s *memoryStore) openSession(token, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = email
}

func (s *memoryStore) sessionOwner(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.sessions[token]
	return email, ok
}

func (s *memoryStore) closeSession(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

func (s *memoryStore) nextID() int64 {
	s.lastID++
	return s.lastID
}

func (s *memoryStore) addCA(record *caRecord) interfaces.CAID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := interfaces.CAID(s.nextID())
	record.details.ID = id
	s.cas[id] = record
	return id
}

func (s *memoryStore) ca(owner string, id interfaces.CAID) (*caRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.cas[id]
	if !ok || record.owner != owner {
		return nil, false
	}
	return record, true
}

func (s *memoryStore) listCAs(owner string) []api.CAInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []api.CAInfo{}
	for id, record := range s.cas {
		if record.owner == owner {
			list = append(list, api.CAInfo{ID: id, Name: record.details.CN})
		}
	}
	sortByID(list, func(c api.CAInfo) int64 { return int64(c.ID) })
	return list
}

// deleteCA removes the CA and every certificate it issued.
func (s *memoryStore) deleteCA(owner string, id interfaces.CAID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.cas[id]
	if !ok || record.owner != owner {
		return false
	}
	delete(s.cas, id)
	for certID, cert := range s.certs {
		if cert.caID == id {
			delete(s.certs, certID)
		}
	}
	return true
}

func (s *memoryStore) addCert(record *certRecord) interfaces.CertID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := interfaces.CertID(s.nextID())
	s.certs[id] = record
	return id
}

// cert returns a snapshot of the certificate record.
func (s *memoryStore) cert(owner string, id interfaces.CertID) (certRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.certs[id]
	if !ok || record.owner != owner {
		return certRecord{}, false
	}
	return *record, true
}

func (s *memoryStore) listCerts(owner string, caID interfaces.CAID, states interfaces.CertState, now time.Time) []api.CertInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := []api.CertInfo{}
	for id, record := range s.certs {
		if record.owner == owner && record.caID == caID && record.matches(states, now) {
			list = append(list, record.info(id))
		}
	}
	sortByID(list, func(c api.CertInfo) int64 { return int64(c.ID) })
	return list
}

func (s *memoryStore) setStatus(owner string, id interfaces.CertID, status interfaces.CertStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.certs[id]
	if !ok || record.owner != owner {
		return false
	}
	record.status = status
	return true
}

func sortByID[T any](list []T, id func(T) int64) {
	slices.SortFunc(list, func(a, b T) int {
		return cmp.Compare(id(a), id(b))
	})
}

func nonEmpty(value string) []string {
	if value == "" {
		return nil
	}
	return []string{value}
}
