package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"

	"luncho-service/internal/adapter/cache"
	"luncho-service/internal/adapter/locale"
	"luncho-service/internal/adapter/repository"
	"luncho-service/internal/config"
	"luncho-service/internal/domain/model"
	"luncho-service/internal/metrics"
	"luncho-service/internal/service"
	"luncho-service/pkg/logger"
	"luncho-service/pkg/utils"
)

const usage = `Usage: luncho <command> [arguments]
Commands:
  convert <luncho_value> [country_code]   local currency and US Dollar values
  data [country_code]                     raw luncho data
  countries                               supported countries
  detect                                  country guessed by the server`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		color.Red("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	// Keep the terminal for results; only errors are logged.
	log := logger.New(os.Stderr, "error")

	fetcher := repository.NewLunchoAPI(cfg.LunchoAPI.BaseURL, cfg.LunchoAPI.Timeout, cfg.LunchoAPI.MaxRetries, log)
	svc := service.NewLunchoService(
		fetcher,
		cache.NewMemoryCache(log),
		locale.NewDisplayLocalizer(cfg.Locale),
		metrics.NewMetrics(prometheus.NewRegistry()),
		log,
		service.WithReferenceCountry(model.CountryCode(cfg.Cache.ReferenceCountry)),
		service.WithFetchTimeout(cfg.Cache.FetchTimeout),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	args := os.Args[2:]
	switch os.Args[1] {
	case "convert":
		err = convert(ctx, svc, args)
	case "data":
		err = showData(ctx, svc, args)
	case "countries":
		err = showCountries(ctx, svc)
	case "detect":
		err = detect(ctx, svc)
	default:
		fmt.Println(usage)
		return
	}

	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func countryArg(args []string, i int) model.CountryCode {
	if len(args) > i {
		return model.NormalizeCountryCode(args[i])
	}
	return ""
}

func convert(ctx context.Context, svc *service.LunchoService, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: convert <luncho_value> [country_code]")
	}
	value, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid luncho value: %w", err)
	}
	countryCode := countryArg(args, 1)

	data, err := svc.GetLunchoData(ctx, countryCode, true)
	if err != nil {
		return err
	}
	local, err := svc.LocalCurrencyFromLuncho(ctx, value, data.CountryCode)
	if err != nil {
		return err
	}
	dollars, err := svc.USDollarFromLuncho(ctx, value, data.CountryCode)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s Luncho in %s (%s)\n", bold(strconv.FormatFloat(value, 'f', -1, 64)), data.CountryName, data.CountryCode)
	color.Green("  %.2f %s", local, data.CurrencyCode)
	if line, ok := dollarLine(data, dollars); ok {
		color.Green("%s", line)
	} else {
		color.Yellow("%s", line)
	}
	return nil
}

// dollarLine formats the US Dollar result. A zero result is a real value
// unless the country has no exchange rate.
func dollarLine(data *model.LunchoData, dollars float64) (string, bool) {
	if data.ExchangeRate <= 0 {
		return "  US Dollar value unavailable", false
	}
	return fmt.Sprintf("  %.2f USD", dollars), true
}

func showData(ctx context.Context, svc *service.LunchoService, args []string) error {
	data, err := svc.GetLunchoData(ctx, countryArg(args, 0), true)
	if err != nil {
		return err
	}

	color.Cyan("%s %s", data.CountryCode, data.CountryName)
	fmt.Printf("  currency:          %s %s\n", data.CurrencyCode, data.CurrencyName)
	fmt.Printf("  dollar per luncho: %g\n", data.DollarPerLuncho)
	fmt.Printf("  ppp:               %g\n", data.PPP)
	fmt.Printf("  exchange rate:     %g\n", data.ExchangeRate)
	fmt.Printf("  expires:           %s\n", utils.FormatEpoch(data.Expiration))
	return nil
}

func showCountries(ctx context.Context, svc *service.LunchoService) error {
	countries, err := svc.GetCountries(ctx, true)
	if err != nil {
		return err
	}

	codes := make([]string, 0, len(countries))
	for code := range countries {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)

	for _, code := range codes {
		fmt.Printf("%s  %s\n", color.CyanString(code), countries[model.CountryCode(code)])
	}
	return nil
}

func detect(ctx context.Context, svc *service.LunchoService) error {
	code, err := svc.GetCountryCode(ctx)
	if err != nil {
		return err
	}
	color.Green("%s", code)
	return nil
}
