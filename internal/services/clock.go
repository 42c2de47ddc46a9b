package services

import "time"

type clocked interface {
	setClock(now func() time.Time)
}

// SetClock makes every given service read the time from now. Values that
// never read the clock are skipped.
func SetClock(now func() time.Time, svcs ...interface{}) {
	for _, svc := range svcs {
		if c, ok := svc.(clocked); ok {
			c.setClock(now)
		}
	}
}

func (s *availabilityService) setClock(now func() time.Time)   { s.now = now }
func (s *bookingService) setClock(now func() time.Time)        { s.now = now }
func (s *cleanupService) setClock(now func() time.Time)        { s.now = now }
func (s *notificationService) setClock(now func() time.Time)   { s.now = now }
func (s *rescheduleService) setClock(now func() time.Time)     { s.now = now }
func (s *routeCapacityService) setClock(now func() time.Time)  { s.now = now }
func (s *settingsService) setClock(now func() time.Time)       { s.now = now }
func (s *sweepService) setClock(now func() time.Time)          { s.now = now }
func (s *tripAssignmentService) setClock(now func() time.Time) { s.now = now }
func (s *tripService) setClock(now func() time.Time)           { s.now = now }
