// Copyright 2025 Poiesic Systems
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

package openai

const (
	passageClip = 400
	judgeClip   = 220
)

const rerankSystemPrompt = `You grade how well each passage answers a query.

Return ONLY a JSON object of the form {"scores":[{"index":0,"score":0.0}]} with one entry per passage.
Do not include any preamble or explanation.

Rules:
- index is the passage number shown in the input.
- score is a number from 0.0 (irrelevant) to 1.0 (directly answers the query).
- Judge relevance only; ignore writing quality.`

const judgeSystemPrompt = `Score passages 0.0-1.0 and return a JSON array of objects with fields id and score.

Focus on temporal fit with the query window and axis, on source authority, and penalize passages that
contradict better-supported ones. Output ONLY the JSON array, starting with [ and ending with ].`
