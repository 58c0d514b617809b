package help

const QuickstartYAML = `# ptally Quick Start

commands:
  scan_log: |
    ptally logs /var/log/auth.log
    ptally logs --print-mode 1 auth.log     # list addresses
    ptally logs --print-mode 2 auth.log     # list users
    ptally logs --save-dir parts auth.log   # also write partial results

  count_patterns: |
    ptally count --out-dir parts moby.txt patterns.txt
    ptally count --detect-language --manifest https://example.com/ulysses.txt patterns.txt

  merge_partials: |
    ptally merge parts
    ptally merge --lenient --out total_counts.txt parts
    ptally merge --format yaml --top 10 parts

  check_patterns: |
    ptally patterns patterns.txt

multi_stage: |
  # Step 1: one partial per text
  for f in books/*.txt; do ptally count --out-dir parts "$f" patterns.txt; done

  # Step 2: combine
  ptally merge --out totals.txt parts

file_formats:
  pattern_file: "One regular expression per line, blank lines ignored, whole matches counted"
  partial_result: "key|count per line, split at the last '|', insertion order"
  manifest: "<output>.manifest.yaml, written with --manifest"

config:
  file: "ptally.yaml in the working directory, or --config PATH"
  keys: [suffix, output_dir, strict, format, print_mode, top, http_timeout, cache_dir, cache_ttl, detect_language, address_pattern, user_pattern]

error_behavior:
  - "Invalid pattern: fails before any text is read, names the line"
  - "Malformed partial record: merge aborts unless --lenient"
  - "A failed count writes no output file"
  - "Exit codes: 0=success, 1=bad input or usage, 2=runtime failure"
`
