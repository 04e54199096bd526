package scheduler

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scmhub/calendar"
)

// krxMIC is the ISO 10383 code of the Korea Exchange.
const krxMIC = "xkrx"

// TradingCalendar decides whether the Korea Exchange trades on a day.
type TradingCalendar struct {
	Calendar *calendar.Calendar
	Timezone *time.Location
}

// NewKRXCalendar loads the KRX holiday calendar. When it is unavailable the
// calendar degrades to Monday to Friday in Asia/Seoul.
func NewKRXCalendar() *TradingCalendar {
	if cal := calendar.GetCalendar(krxMIC); cal != nil {
		return &TradingCalendar{Calendar: cal, Timezone: cal.Loc}
	}
	log.Warn().Str("mic", krxMIC).Msg("Trading calendar unavailable, using weekday fallback")
	return &TradingCalendar{Timezone: seoul()}
}

func seoul() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// IsTradingDay reports whether date is a KRX business day.
func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	if tc.Timezone != nil {
		date = date.In(tc.Timezone)
	}
	if tc.Calendar == nil {
		wd := date.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return tc.Calendar.IsBusinessDay(date)
}
