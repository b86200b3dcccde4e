package service

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PAY-{8 char student id}-{unix ms}-{6 char base36}; trace id, bukan kunci unik.
func NewReferenceNumber(studentID uuid.UUID, now time.Time) string {
	sid := strings.ToUpper(studentID.String()[:8])
	suffix := strconv.FormatInt(rand.Int64N(36*36*36*36*36*36), 36)
	if len(suffix) < 6 {
		suffix = strings.Repeat("0", 6-len(suffix)) + suffix
	}
	suffix = strings.ToUpper(suffix)
	return fmt.Sprintf("PAY-%s-%d-%s", sid, now.UnixMilli(), suffix)
}

// RCT-{yyyymmdd}-{8 char transaction id}
func newReceiptNumber(txID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("RCT-%s-%s", now.Format("20060102"), strings.ToUpper(txID.String()[:8]))
}
