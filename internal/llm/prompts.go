package llm

import "fmt"

func systemPrompt(minPrice int64) string {
	return fmt.Sprintf(
		"You are a data extraction expert. Extract ONLY polymers with explicit numeric prices >= %d. "+
			"Numbers that are part of polymer names are NOT prices. Return only valid JSON.", minPrice)
}

func userPrompt(text string, minPrice int64) string {
	return fmt.Sprintf(`Extract polymer names and their NUMERIC prices from the following message.
The message is from a Telegram group where traders post polymer prices.

CRITICAL RULES - FOLLOW THESE EXACTLY:
1. ONLY extract polymers that have EXPLICIT numeric prices shown in the message
2. IGNORE polymers with "BOR", "AVAILABLE" or any status symbols instead of a price
3. IGNORE polymers where no price is shown
4. Prices are 5-digit numbers at or above %[1]d (e.g. 14900, 15800, 16700)
5. DO NOT extract the number from the polymer name as the price
   - "Uz-Kor Gas Jm370" does NOT have a price (370 is part of the name)
   - "BL5200" does NOT have a price (5200 is part of the name)
6. Polymer names commonly embed numbers: J150, J370, BL5200, 1561 - these are NOT prices
7. Ignore phone numbers, dates and contact information
8. Output names must contain no emoji
9. Return ONLY a valid JSON array

Examples of VALID entries (polymer WITH a separate explicit price):
- "Uz-Kor Gas J150              14900" -> valid, price 14900
- "Shurtan By456                15400" -> valid, price 15400

Examples of INVALID entries:
- "Uz-Kor Gas J150🔥🔥" -> invalid, status symbol only
- "Uz-Kor Gas Jm370" -> invalid, 370 is part of the name

Message:
%[2]s

Return a JSON array with ONLY entries that have explicit numeric prices >= %[1]d:
[
  {"polymer_name": "Uz-Kor Gas J150", "price": 14900},
  {"polymer_name": "Shurtan By456", "price": 15400}
]

If no polymers with explicit prices are found, return an empty array: []`, minPrice, text)
}
