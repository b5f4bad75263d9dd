package idgen

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Snowflake layout, 64 bits:
//
//	0 | 41 bits ms since epoch | 10 bits worker | 12 bits sequence
const (
	epoch          = int64(1704067200000) // 2024-01-01 00:00:00 UTC
	workerIDBits   = 10
	sequenceBits   = 12
	maxWorkerID    = -1 ^ (-1 << workerIDBits)
	maxSequence    = -1 ^ (-1 << sequenceBits)
	workerIDShift  = sequenceBits
	timestampShift = sequenceBits + workerIDBits
)

// RefLength is the length of every order reference.
const RefLength = 12

// refSpace is 36^RefLength; ids below it fit RefLength base36 digits.
// The current layout stays below it until roughly 2059.
var refSpace = func() int64 {
	n := int64(1)
	for i := 0; i < RefLength; i++ {
		n *= 36
	}
	return n
}()

type Snowflake struct {
	mu        sync.Mutex
	timestamp int64
	workerID  int64
	sequence  int64
}

var (
	defaultGenerator *Snowflake
	once             sync.Once
)

// Init sets the worker id of the process-wide generator. Only the first call counts.
func Init(workerID int64) {
	once.Do(func() {
		if workerID < 0 || workerID > maxWorkerID {
			logrus.WithField("worker_id", workerID).Fatalf("worker id must be within 0-%d", maxWorkerID)
		}
		defaultGenerator = &Snowflake{workerID: workerID}
	})
}

func NextID() int64 {
	// falls back to worker 1 when Init was never called
	Init(1)
	return defaultGenerator.Generate()
}

func (s *Snowflake) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()

	if now == s.timestamp {
		s.sequence = (s.sequence + 1) & maxSequence
		if s.sequence == 0 {
			// sequence exhausted for this millisecond
			for now <= s.timestamp {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.sequence = 0
	}

	s.timestamp = now

	return ((now - epoch) << timestampShift) |
		(s.workerID << workerIDShift) |
		s.sequence
}

// GenerateOrderRef returns a RefLength character uppercase alphanumeric order id.
func GenerateOrderRef() string {
	return encode(NextID() % refSpace)
}

// GeneratePaymentRef returns the merchant reference for a wallet top-up.
func GeneratePaymentRef() string {
	return "FUND-" + encode(NextID()%refSpace)
}

func encode(id int64) string {
	s := strings.ToUpper(strconv.FormatInt(id, 36))
	if len(s) < RefLength {
		s = strings.Repeat("0", RefLength-len(s)) + s
	}
	return s
}
