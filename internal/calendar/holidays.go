package calendar

// xshgHolidays lists Shanghai Stock Exchange weekday closures. Weekend
// dates are omitted: the weekday filter already excludes them. Update
// yearly when the exchange publishes its holiday arrangement.
var xshgHolidays = []string{
	// 2024
	"20240101",                                                             // 元旦
	"20240209", "20240212", "20240213", "20240214", "20240215", "20240216", // 春节
	"20240404", "20240405", // 清明节
	"20240501", "20240502", "20240503", // 劳动节
	"20240610",             // 端午节
	"20240916", "20240917", // 中秋节
	"20241001", "20241002", "20241003", "20241004", "20241007", // 国庆节
	// 2025
	"20250101",                                                             // 元旦
	"20250128", "20250129", "20250130", "20250131", "20250203", "20250204", // 春节
	"20250404",                         // 清明节
	"20250501", "20250502", "20250505", // 劳动节
	"20250602",                                                             // 端午节
	"20251001", "20251002", "20251003", "20251006", "20251007", "20251008", // 国庆节、中秋节
	// 2026
	"20260101", "20260102", // 元旦
	"20260216", "20260217", "20260218", "20260219", "20260220", // 春节
	"20260406",                         // 清明节
	"20260501", "20260504", "20260505", // 劳动节
	"20260619", // 端午节
	"20260925", // 中秋节
	"20261001", "20261002", "20261005", "20261006", "20261007", // 国庆节
}
