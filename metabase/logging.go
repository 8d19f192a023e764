/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package metabase

import "github.com/evesallesleite-cell/lab-site-sub000/logging"

var logger = logging.Logger(logging.SourceMetabase)
