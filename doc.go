// Copyright 2025 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bandwidth enforces a CPU-time quota shared by all CPUs a task
// group runs on.
//
// A group is granted a fixed quota of runtime per fixed period. The quota
// lives in a single lock-protected pool; each CPU draws bounded slices from
// the pool into a local account on demand instead of consulting the pool on
// every scheduling decision. Once per period the pool is refilled, unless
// nothing consumed from it, in which case the replenishment timer is allowed
// to go dormant until consumption resumes.
//
// Per-CPU clocks are not assumed to be synchronized: they may disagree by a
// small bounded amount. A CPU therefore cannot conclude that its slice
// belongs to a closed period just because its own clock passed the slice's
// deadline. Instead it compares its deadline against the pool's: if the pool
// deadline is not newer, the local clock merely ran ahead and the local
// deadline is nudged forward by one tick; if the pool deadline is newer, the
// period genuinely rolled over and the stale balance is forfeit.
//
// The package decides only whether a CPU still has valid runtime. What
// happens to tasks when it does not is delegated to a Throttler.
package bandwidth
