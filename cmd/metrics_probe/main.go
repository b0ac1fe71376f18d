package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// 探测运行中回放的 /metrics，打印指定前缀的指标，便于 Prometheus/Grafana 接入前自检。
func main() {
	addr := flag.String("metricsAddr", "127.0.0.1:9101", "回放指标服务地址")
	prefix := flag.String("prefix", "mr_", "只打印该前缀的指标")
	interval := flag.Duration("interval", 0, "大于 0 时按间隔持续探测")
	flag.Parse()

	client := &http.Client{Timeout: 5 * time.Second}
	for {
		if err := probe(client, "http://"+*addr, *prefix, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
			if *interval <= 0 {
				os.Exit(1)
			}
		}
		if *interval <= 0 {
			return
		}
		time.Sleep(*interval)
	}
}

func probe(client *http.Client, base, prefix string, w io.Writer) error {
	resp, err := client.Get(base + "/healthz")
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthz status %d", resp.StatusCode)
	}

	resp, err = client.Get(base + "/metrics")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("metrics status %d", resp.StatusCode)
	}
	found := 0
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, prefix) {
			fmt.Fprintln(w, line)
			found++
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if found == 0 {
		return fmt.Errorf("no metrics with prefix %q", prefix)
	}
	return nil
}
