// Package prompt builds the model prompts for each analysis task.
//
// Builders are pure string assembly; the document text arrives already
// extracted and sanitized. Prompts pin the exact JSON shape the normalize
// schemas expect, so prompt and schema changes travel together.
package prompt

import (
	"fmt"
	"strings"
)

// CVSeparator delimits individual CVs in the combined ranking prompt.
const CVSeparator = "---------------------------------"

// ChatSystem is the pinned system turn for the chat assistant.
const ChatSystem = "You are a friendly chatbot that responds with short sentences and uses emojis frequently. Keep your responses brief and cheerful!"

// LanguageDetection asks for a bare language name for the given sample.
func LanguageDetection(sample string) string {
	return fmt.Sprintf(`Detect the language of this bill text and respond with just the language name in English:

%s`, sample)
}

// Bill builds the bill analysis prompt in English or Spanish depending on
// the detected document language.
func Bill(text, language string) string {
	if IsSpanish(language) {
		return fmt.Sprintf(`Analiza esta factura/recibo y proporciona un análisis estructurado. Responde en español.

Texto de la factura:
%s

Por favor, proporciona tu respuesta en el siguiente formato JSON:
{
    "items": [
        {
            "name": "Nombre del artículo",
            "amount": 0.00,
            "category": "Categoría",
            "notes": "Notas sobre este artículo"
        }
    ],
    "total": 0.00,
    "currency": "Moneda detectada",
    "summary": "Resumen del análisis",
    "observations": "Observaciones importantes",
    "suggestions": "Sugerencias para el usuario"
}

Categorías sugeridas: Servicios Públicos, Alimentación, Suscripciones, Transporte, Entretenimiento, Salud, Educación, Hogar, Desconocido

Para las notas, incluye comentarios como "tarifa estándar", "más alto de lo usual", "cargo sospechoso", etc.`, text)
	}
	return fmt.Sprintf(`Analyze this bill/receipt and provide a structured analysis. Respond in English.

Bill text:
%s

Please provide your response in the following JSON format:
{
    "items": [
        {
            "name": "Item name",
            "amount": 0.00,
            "category": "Category",
            "notes": "Notes about this item"
        }
    ],
    "total": 0.00,
    "currency": "Detected currency",
    "summary": "Summary of the analysis",
    "observations": "Important observations",
    "suggestions": "Suggestions for the user"
}

Suggested categories: Utilities, Grocery, Subscription, Transportation, Entertainment, Healthcare, Education, Home, Unknown

For notes, include comments like "standard rate", "higher than usual", "suspicious charge", etc.`, text)
}

// IsSpanish reports whether a detected language name denotes Spanish.
func IsSpanish(language string) bool {
	l := strings.ToLower(strings.TrimSpace(language))
	return l == "spanish" || l == "español"
}

// Contract builds the legal document review prompt.
func Contract(text string) string {
	return fmt.Sprintf(`As an expert legal analyst, please thoroughly analyze this legal document/contract and provide a comprehensive analysis.

Document text:
%s

Please provide your response in the following JSON format:
{
    "contract_title": "Title or type of the contract",
    "duration": "Contract duration/term (e.g., '2 years', 'permanent', 'until terminated')",
    "parties": {
        "party1": "First party name/entity",
        "party2": "Second party name/entity",
        "relationship": "Description of the relationship (e.g., 'Employment contract between John Doe and ABC Corp')"
    },
    "contract_details": "Detailed summary of what this contract covers, main obligations, and key terms",
    "risk_assessment": {
        "safety_percentage": 85,
        "risk_level": "Low/Medium/High",
        "scam_likelihood": "Very Low/Low/Medium/High/Very High",
        "explanation": "Detailed explanation of the risk assessment and why this percentage was assigned"
    },
    "contract_explanation": "Clear explanation of the contract in simple terms, breaking down complex legal language",
    "legal_terms_simplified": [
        {
            "term": "Legal term or phrase",
            "simple_explanation": "What this means in everyday language"
        }
    ],
    "risky_parts": [
        {
            "issue": "Description of the risky clause or missing element",
            "risk_level": "Low/Medium/High/Critical",
            "explanation": "Why this is risky and potential consequences",
            "location": "Where in the contract this appears"
        }
    ],
    "missing_clauses": [
        {
            "clause": "Missing clause or protection",
            "importance": "Low/Medium/High/Critical",
            "explanation": "Why this clause is important and what risks it would mitigate"
        }
    ],
    "recommended_changes": [
        {
            "change": "Specific change or addition recommended",
            "reason": "Why this change is recommended",
            "priority": "Low/Medium/High/Critical"
        }
    ],
    "final_recommendations": "Overall assessment and final advice for the person reviewing this contract"
}

Be thorough in your analysis and focus on protecting the interests of the person asking for the review. Identify any potential red flags, unfair terms, or areas where additional protection might be needed.`, text)
}

// Financial builds the coaching prompt from statement text and the user's
// stated goal.
func Financial(text, goal, goalAmount, goalTimeframe string) string {
	return fmt.Sprintf(`As an expert financial advisor, please analyze this bank statement data and provide comprehensive financial advice.

Bank Statement Data:
%s

User's Financial Goal: %s
Goal Amount: %s
Target Timeframe: %s

Please provide your response in the following JSON format:
{
    "financial_overview": {
        "total_income": 0.00,
        "total_expenses": 0.00,
        "net_savings": 0.00,
        "analysis_period": "Last X months",
        "average_monthly_income": 0.00,
        "average_monthly_expenses": 0.00
    },
    "spending_breakdown": [
        {
            "category": "Housing/Rent",
            "amount": 0.00,
            "percentage": 0.0,
            "frequency": "monthly",
            "status": "normal/high/low"
        }
    ],
    "income_sources": [
        {
            "source": "Salary",
            "amount": 0.00,
            "frequency": "monthly",
            "stability": "stable/variable"
        }
    ],
    "financial_habits": {
        "good_habits": [
            "List of positive financial behaviors observed"
        ],
        "bad_habits": [
            "List of concerning spending patterns"
        ],
        "subscriptions": [
            {
                "service": "Service name",
                "cost": 0.00,
                "frequency": "monthly",
                "necessity": "essential/useful/unnecessary"
            }
        ]
    },
    "goal_analysis": {
        "goal": "%s",
        "target_amount": "%s",
        "timeframe": "%s",
        "feasibility": "achievable/challenging/unrealistic",
        "current_savings_rate": 0.0,
        "required_savings_rate": 0.0,
        "monthly_savings_needed": 0.00,
        "time_to_reach_goal": "X months/years"
    },
    "recommendations": {
        "stop_doing": [
            {
                "action": "Specific thing to stop",
                "potential_savings": 0.00,
                "impact": "high/medium/low"
            }
        ],
        "start_doing": [
            {
                "action": "Specific thing to start",
                "potential_benefit": 0.00,
                "difficulty": "easy/medium/hard"
            }
        ],
        "budget_suggestions": [
            {
                "category": "Category name",
                "current_spending": 0.00,
                "recommended_spending": 0.00,
                "reason": "Why this change is recommended"
            }
        ]
    },
    "action_plan": {
        "immediate_actions": [
            "Actions to take in the next 30 days"
        ],
        "short_term_goals": [
            "Goals for next 3-6 months"
        ],
        "long_term_strategy": [
            "Long-term financial strategy"
        ]
    },
    "income_optimization": [
        {
            "suggestion": "How to increase income",
            "potential_increase": 0.00,
            "effort_required": "low/medium/high",
            "timeframe": "immediate/short-term/long-term"
        }
    ],
    "risk_assessment": {
        "emergency_fund_status": "adequate/insufficient/none",
        "financial_stability": "stable/at-risk/unstable",
        "debt_situation": "none/manageable/concerning/critical",
        "recommendations": "Overall risk mitigation advice"
    },
    "personalized_insights": "Detailed, personalized advice based on the user's specific situation and goals"
}

Analyze spending patterns, identify trends, calculate percentages, and provide actionable advice. Be specific with numbers and realistic with recommendations. Consider the user's goal and provide a clear path to achieve it.`, text, goal, goalAmount, goalTimeframe, goal, goalAmount, goalTimeframe)
}

// CVRank builds the candidate ranking prompt. cvTexts come pre-joined with
// CVSeparator; cvCount is the number of documents in the batch.
func CVRank(jobRole, cvTexts string, cvCount, topCount int) string {
	return fmt.Sprintf(`I am looking for candidates for the position: %s

Below are %d CVs separated by dashes:

%s

Please analyze these CVs and select the TOP %d best candidates for the %s position based on:
- Work experience relevance
- Education background
- Skills match
- Overall qualifications

Please provide your response in the following JSON format, ranking candidates from best to least suitable:
{
    "candidates": [
        {
            "full_name": "Extracted full name",
            "email": "Email or N/A if not provided",
            "phone": "Phone number or N/A if not provided",
            "years_of_experience": "Calculated or estimated years of experience",
            "education": "Highest education level and field",
            "linkedin": "LinkedIn profile or N/A if not provided",
            "website": "Personal website or N/A if not provided"
        }
    ],
    "ranking_rationale": "Brief explanation of how the candidates were ranked"
}

Please only return the top %d candidates.`, jobRole, cvCount, cvTexts, topCount, jobRole, topCount)
}

// Video builds the fact-checking prompt for a video transcription.
func Video(transcription string) string {
	return fmt.Sprintf(`As an expert fact-checker and information analyst, please thoroughly analyze this video content for accuracy, reliability, and overall quality.

IMPORTANT: Identify and analyze ALL significant claims, facts, statistics, statements, and pieces of information presented in this video. Do not limit yourself to just a few - extract and evaluate EVERY important piece of information, including:
- Factual claims and statements
- Statistics and numbers mentioned
- Historical references
- Scientific claims
- Personal opinions presented as facts
- Recommendations or advice given
- Any controversial or debatable points
- Background information provided
- Conclusions drawn by the presenter

For each significant claim, fact, or piece of information presented, provide:
1. The specific information or claim
2. A reliability/accuracy score from 0-100 where:
   - 90-100: Completely accurate, well-sourced, verifiable
   - 70-89: Mostly accurate with minor issues or context needed
   - 50-69: Partially accurate but missing important context or nuance
   - 30-49: Misleading or significantly inaccurate
   - 0-29: False, fabricated, or dangerous misinformation
3. A comprehensive explanation (3-4 sentences minimum) covering:
   - Why you assigned this specific score
   - What makes this information reliable or unreliable
   - Any missing context or nuance
   - Potential consequences of believing/sharing this information

Be thorough and comprehensive - if a video contains 20 different claims or pieces of information, analyze all 20. If it contains 50, analyze all 50. Do not skip any important information.

Also provide your expert opinion on:
- What this video is really about and its main message
- The overall credibility and trustworthiness of the content
- Whether the presenter demonstrates expertise in the subject
- Any red flags, biases, or concerning patterns you notice
- Your personal assessment of whether viewers should trust this content
- Recommendations for viewers (should they share it, be cautious, seek additional sources, etc.)

Please format your response as JSON with this structure:
{
    "claims_analysis": [
        {
            "information": "The specific claim or information presented",
            "reliability_score": 85,
            "description": "Comprehensive 3-4 sentence analysis explaining the score, reliability factors, missing context, and potential impact of this information"
        }
    ],
    "summary": "Detailed summary of what this video is about, its main arguments, and overall message",
    "general_assessment": "Your expert opinion on the video's credibility, the presenter's expertise, any biases or red flags, and overall trustworthiness",
    "analysis_description": "Your professional recommendation for viewers - should they trust this content, share it, be cautious, or seek additional sources? Include your reasoning and any warnings."
}

Video content to analyze:
%s`, transcription)
}
