package usage

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gridledger/electric/cmd/util"
	"github.com/gridledger/electric/lib/electric"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Load generator that records synthetic usage through the client modules",
	Long: `Records synthetic measurements for a number of users in parallel and
reports the latency of createUsage and of the per user query. Users are named
<prefix>0000, <prefix>0001, ... and are created first.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	f := benchCmd.Flags()
	f.Int("users", 10, util.WrapString("Number of users to record usage for"))
	f.Int("records", 100, util.WrapString("Number of records per user"))
	f.Int("threads", 10, util.WrapString("Number of concurrent writers"))
	f.String("user-prefix", "BENCH", util.WrapString("Prefix of the generated user ids"))
}

type benchTimers struct {
	create metrics.Timer
	query  metrics.Timer
	errors metrics.Counter
}

func runBench(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	users := viper.GetInt("users")
	records := viper.GetInt("records")
	threads := max(viper.GetInt("threads"), 1)
	prefix := viper.GetString("user-prefix")

	ctx := cmd.Context()
	registry := metrics.NewRegistry()
	timers := benchTimers{
		create: metrics.NewRegisteredTimer("createUsage", registry),
		query:  metrics.NewRegisteredTimer("queryUsageForUser", registry),
		errors: metrics.NewRegisteredCounter("errors", registry),
	}

	ids := make([]string, users)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%04d", prefix, i)
		if _, err := clients.Users.CreateUser(ctx, electric.UserInput{UserID: ids[i], UserName: ids[i]}); err != nil {
			return err
		}
	}

	fmt.Printf("recording %d records for %d users with %d threads...\n", users*records, users, threads)

	jobs := make(chan int)
	var wg sync.WaitGroup
	base := time.Now().UnixMilli()
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				in := electric.UsageInput{
					UserID:    ids[n%users],
					Time:      strconv.FormatInt(base+int64(n), 10),
					Voltage:   "230",
					Current:   strconv.Itoa(n % 16),
					Power:     strconv.Itoa(230 * (n % 16)),
					Frequency: "50",
					Energy:    strconv.Itoa(n),
				}
				start := time.Now()
				_, err := clients.Usage.CreateUsage(ctx, in)
				timers.create.UpdateSince(start)
				if err != nil {
					timers.errors.Inc(1)
				}
			}
		}()
	}
	for n := 0; n < users*records; n++ {
		jobs <- n
	}
	close(jobs)
	wg.Wait()

	for _, id := range ids {
		start := time.Now()
		_, err := clients.Usage.GetUsageForUser(ctx, id)
		timers.query.UpdateSince(start)
		if err != nil {
			timers.errors.Inc(1)
		}
	}

	printTimer("createUsage", timers.create)
	printTimer("queryUsageForUser", timers.query)
	fmt.Printf("%-20s%d\n", "errors", timers.errors.Count())
	return nil
}

func printTimer(name string, t metrics.Timer) {
	s := t.Snapshot()
	if s.Count() == 0 {
		fmt.Printf("%-20sskipped\n", name)
		return
	}
	p := s.Percentiles([]float64{0.5, 0.95, 0.99})
	fmt.Printf("%-20s%d ops\tmean %s\tp50 %s\tp95 %s\tp99 %s\tmax %s\t%.0f ops/sec\n",
		name, s.Count(),
		time.Duration(s.Mean()), time.Duration(p[0]), time.Duration(p[1]), time.Duration(p[2]),
		time.Duration(s.Max()), s.RateMean())
}
