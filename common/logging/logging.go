// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package logging provides a small timed-operation helper the sync driver
// uses to log each header it processes, in the same
// duration/error-field style the wallet-facing gRPC interceptor used.
package logging

import (
	"time"

	"github.com/sirupsen/logrus"
)

// LogToStderr mirrors the teacher's toggle for whether per-operation log
// lines are emitted at all; cmd sets it on at startup.
var LogToStderr = true

// TimeOperation runs fn, then logs its outcome against entry with a
// "duration" and, on failure, an "error" field.
func TimeOperation(entry *logrus.Entry, name string, fields logrus.Fields, fn func() error) error {
	start := time.Now()
	err := fn()

	if !LogToStderr {
		return err
	}

	logged := entry.WithFields(fields).WithFields(logrus.Fields{
		"operation": name,
		"duration":  time.Since(start),
	})
	if err != nil {
		logged.WithField("error", err).Error("operation failed")
	} else {
		logged.Info("operation completed")
	}
	return err
}
