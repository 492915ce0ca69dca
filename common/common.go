// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package common holds the small set of globals shared across the driver,
// RPC client, and cmd packages: build metadata, the mockable time
// indirection the tests substitute, and the process-wide logger.
package common

import (
	"time"

	"github.com/sirupsen/logrus"
)

// 'make build' will overwrite this string with the output of git-describe (tag)
var (
	Version   = "v0.0.0.0-dev"
	GitCommit = ""
	Branch    = ""
	BuildDate = ""
	BuildUser = ""
	NodeName  = "zebrad"
)

// Time allows time-related functions to be mocked for testing, so that
// tests can be deterministic and don't require real time to elapse. In
// production these point to the standard library time functions.
var Time struct {
	Sleep func(d time.Duration)
	Now   func() time.Time
}

func init() {
	Time.Sleep = time.Sleep
	Time.Now = time.Now
}

// Log is the process-wide structured logger; cmd sets it, with its log
// level, before starting the sync driver.
var Log *logrus.Entry
