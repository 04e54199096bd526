package notifier

import (
	"fmt"
	"html"
	"strings"

	"MarketDecline/internal/decline"
	"MarketDecline/internal/model"
	"MarketDecline/internal/recorder"
)

// FormatAnalysisReport formats a finished run into a Telegram message.
func FormatAnalysisReport(res *model.AnalysisResult, top int) string {
	var b strings.Builder
	s := res.Summary

	b.WriteString(fmt.Sprintf("📉 <b>하락률 분석</b> | %s\n", res.FinishedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("%s · 최근 %d일\n\n", html.EscapeString(res.MarketName), res.PeriodDays))

	b.WriteString(fmt.Sprintf("분석 종목: %d개", s.Count))
	if res.Skipped > 0 {
		b.WriteString(fmt.Sprintf(" (제외 %d개)", res.Skipped))
	}
	b.WriteString("\n")
	if s.Count == 0 {
		b.WriteString("분석할 수 있는 데이터가 없습니다.\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("평균: %.2f%% | 중앙값: %.2f%%\n", s.Mean, s.Median))
	b.WriteString(fmt.Sprintf("표준편차: %.2f%%\n", s.Std))
	b.WriteString(fmt.Sprintf("최대 하락률: %.2f%% | 최소 하락률: %.2f%%\n\n", s.MaxDecline(), s.MinDecline()))

	b.WriteString("📊 <b>구간별 분포</b>\n")
	for _, c := range s.Distribution {
		b.WriteString(fmt.Sprintf("  %s: %d (%.1f%%)\n", html.EscapeString(c.Label), c.Count, s.Share(c)))
	}

	if len(s.ByMarket) > 0 {
		b.WriteString("\n🏛 <b>시장별</b>\n")
		for _, m := range []model.Market{model.MarketKOSPI, model.MarketKOSDAQ} {
			ms, ok := s.ByMarket[m]
			if !ok {
				continue
			}
			b.WriteString(fmt.Sprintf("  %s: %d개, 평균 %.2f%%, 최대 %.2f%%\n", m, ms.Count, ms.Mean, ms.MaxDecline()))
		}
	}

	worst := decline.RankWorst(res.Records, top)
	if len(worst) > 0 {
		b.WriteString(fmt.Sprintf("\n🔻 <b>상위 하락 종목 %d</b>\n", len(worst)))
		for i, r := range worst {
			b.WriteString(fmt.Sprintf("  %d. %s (%s) %.2f%%\n", i+1, html.EscapeString(r.Name), r.Code, r.MaxDeclinePct))
		}
	}
	return b.String()
}

// FormatRunHistory lists recorded runs, newest first.
func FormatRunHistory(runs []recorder.RunSummary) string {
	if len(runs) == 0 {
		return "기록된 분석이 없습니다."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>최근 분석 기록</b>\n\n")
	for _, r := range runs {
		b.WriteString(fmt.Sprintf("%s %s %d일: %d개, 평균 %.2f%%, 최대 %.2f%%\n",
			r.StartedAt.Format("01-02 15:04"), html.EscapeString(r.MarketName), r.PeriodDays,
			r.Stats.Count, r.Stats.Mean, r.Stats.MaxDecline()))
	}
	return b.String()
}

// FormatError formats a failed scheduled task.
func FormatError(task string, err error) string {
	return fmt.Sprintf("⚠️ <b>%s 실패</b>\n%s", html.EscapeString(task), html.EscapeString(err.Error()))
}

// FormatHelp lists the supported bot commands.
func FormatHelp() string {
	return "사용 가능한 명령:\n" +
		"/summary - 최근 분석 요약\n" +
		"/history - 최근 분석 기록\n" +
		"/run - 지금 분석 실행\n" +
		"/help - 도움말"
}
